package extraction

import (
	"strings"
	"time"

	"github.com/dvloznov/diane/internal/domain"
)

const transactionPrompt = `Analisa a mensagem do usuário e, se ela descrever um gasto, receita ou transação financeira, extrai os dados em JSON.

Regras:
- amount: valor numérico (sempre positivo; para receita use positive, para gasto use positive e indique que é gasto no description se fizer sentido).
- description: breve descrição da transação (ex: "Mercado", "Almoço", "Depósito").
- category: UMA das categorias: {{CATEGORIES}}.
- account: nome da conta/cartão se mencionado (ex: Nubank, Itaú, Dinheiro), ou null.
- tx_date: data da transação em YYYY-MM-DD. Se não informada, use hoje.

Se a mensagem NÃO for sobre uma transação (pergunta, cumprimento, etc), responda apenas: {"extract": null}

Exemplo de resposta para "Gastei 50 no mercado ontem": {"extract": {"amount": 50, "description": "Mercado", "category": "Alimentação", "account": null, "tx_date": "2025-01-27"}}
`

const shoppingPrompt = `Analisa a mensagem do usuário sobre LISTA DE COMPRAS.

Ações possíveis:
- create_list: usuário quer CRIAR ou INICIAR uma nova lista (ex: "cria uma lista", "nova lista", "inicia lista").
  Pode incluir itens iniciais na mesma frase (ex: "cria lista e adiciona leite, pão", "nova lista do mercado com café e açúcar").
- add_items: usuário quer ADICIONAR itens (ex: "adiciona leite", "adiciona leite e pão", "põe café na lista").
- check_items: usuário diz que PEGOU/comprou itens (ex: "peguei o leite", "peguei leite e pão", "marquei o café").

Responde APENAS em JSON, sem outro texto:
{"action": "create_list"|"add_items"|"check_items"|null, "list_name": "nome ou null", "items": ["item1","item2"] ou []}

Regras:
- action null se não for sobre lista de compras.
- create_list: list_name pode ser um nome dado ("lista do mercado") ou null para "Nova lista".
  Se o usuário disser itens ao criar (ex: "cria lista com leite e pão"), inclua em items.
- add_items / check_items: items = lista dos itens mencionados.
- "peguei o leite" -> check_items, items ["leite"].
- "adiciona leite, pão e café" -> add_items, items ["leite","pão","café"].
- "cria uma lista e põe leite, pão" -> create_list, list_name null, items ["leite","pão"].
`

const pricePrompt = `Analisa a mensagem do usuário. Se ela REPORTAR o preço de um produto em um mercado/supermercado, extrai os dados.

Exemplos:
- "preço do leite piracanjuba no guanabara tá 5,90" -> produto, mercado, preço
- "no assaí o leite custa 6 reais"
- "leite piracanjuba guanabara 5,90"
- "registra preço do café no atacadão: 12,50"

Responde APENAS em JSON, sem outro texto:
{"product": "nome do produto", "market": "nome do mercado", "price": número}

Regras:
- product: nome do produto (ex: "leite piracanjuba", "café").
- market: nome do mercado/supermercado (ex: "guanabara", "assai", "atacadão").
- price: valor numérico (use . como decimal). Ex: 5.90, 12.50.
- Se a mensagem NÃO for reporte de preço em mercado, responda: {"product": null, "market": null, "price": null}
`

// buildTransactionPrompt embeds the category set, today's date and the message.
func buildTransactionPrompt(message string, today time.Time) string {
	base := strings.Replace(transactionPrompt, "{{CATEGORIES}}", strings.Join(domain.SeedCategories, ", "), 1)
	return base + "\n\nData de hoje: " + today.Format(time.DateOnly) + "\n\nMensagem: " + message
}

func buildShoppingPrompt(message string) string {
	return shoppingPrompt + "\n\nMensagem: " + message
}

func buildPricePrompt(message string) string {
	return pricePrompt + "\n\nMensagem: " + message
}
