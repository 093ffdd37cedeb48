package chat

import (
	"fmt"
	"strings"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/reply"
)

const persona = "Você é a DIANE, assistente de finanças pessoais. Você guarda gastos, receitas e contas em SQLite local."

// buildContext renders the financial snapshot given to the chat model.
func buildContext(accounts []domain.Account, spending *domain.MonthlySpending, shoppingSummary string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Resumo financeiro atual (mês %02d/%d):\n\n", spending.Month, spending.Year)
	fmt.Fprintf(&b, "**Gastos no mês:** %s\n\n", reply.FormatBRL(spending.Total))

	b.WriteString("**Por categoria:**\n")
	if len(spending.ByCategory) == 0 {
		b.WriteString("(nenhum gasto registrado no mês)\n")
	}
	for _, c := range spending.ByCategory {
		fmt.Fprintf(&b, "- %s: %s\n", c.CategoryName, reply.FormatBRL(c.Total))
	}

	b.WriteString("\n**Contas e saldos:**\n")
	if len(accounts) == 0 {
		b.WriteString("(nenhuma conta cadastrada)\n")
	}
	for _, a := range accounts {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name, reply.FormatBRL(a.EffectiveBalance))
	}

	if shoppingSummary != "" {
		fmt.Fprintf(&b, "\n**Lista de compras ativa:**\n%s\n", shoppingSummary)
	}

	b.WriteString("\nSuporta também banco de preços por mercado: usuário pode reportar preço de produto em mercado (ex: 'leite piracanjuba no guanabara 5,90').")
	b.WriteString("\nSeja objetiva e amigável. Use os dados acima para responder. Suporta finanças e listas de compras (criar lista, adicionar itens, 'peguei' para marcar).")
	return b.String()
}

// buildChatPrompt combines persona, context, history (oldest first) and the
// current message into one prompt.
func buildChatPrompt(context string, history []domain.ChatMessage, message string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(context)
	b.WriteString("\n\nResponda sempre em português.")
	b.WriteString("\n\n---\n\n")
	for _, m := range history {
		speaker := "DIANE"
		if m.Role == domain.RoleUser {
			speaker = "Usuário"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", speaker, m.Content)
	}
	b.WriteString("Usuário: ")
	b.WriteString(message)
	return b.String()
}
