package reply

import (
	"fmt"
	"strings"
)

// ErrorKind tags a failed conversational reply for the caller.
type ErrorKind string

const (
	ErrorKindNone  ErrorKind = ""
	ErrorKindQuota ErrorKind = "quota"
	ErrorKindLLM   ErrorKind = "llm"
)

// QuotaMessage is shown when the generation service rejects a call for
// quota or rate reasons.
const QuotaMessage = "⚠️ A cota da API do Gemini foi excedida (limite de uso ou taxa). " +
	"Tente novamente em alguns minutos. Se o problema persistir, verifique seu plano e limites em Google AI Studio."

// NotConfiguredMessage is the chat reply when no API key is configured.
const NotConfiguredMessage = "Configure GEMINI_API_KEY para usar o chat da DIANE."

var quotaKeywords = []string{"429", "quota", "resource exhausted", "rate limit", "rate_limit", "resource_exhausted"}

// IsQuotaError reports whether err's text names a quota or rate limit.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, k := range quotaKeywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ClassifyLLMError turns a conversational-reply failure into the message
// shown to the user and its error kind.
func ClassifyLLMError(err error) (string, ErrorKind) {
	if IsQuotaError(err) {
		return QuotaMessage, ErrorKindQuota
	}
	return fmt.Sprintf("Não consegui processar sua mensagem. Erro: %v. Tente novamente.", err), ErrorKindLLM
}
