package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/diane/internal/llm"
)

type fakeGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, temperature float32) (string, error)
	calls        int
	lastPrompt   string
	lastTemp     float32
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastTemp = temperature
	return f.GenerateFunc(ctx, prompt, temperature)
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func respond(s string) *fakeGenerator {
	return &fakeGenerator{GenerateFunc: func(context.Context, string, float32) (string, error) { return s, nil }}
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 28, 10, 0, 0, 0, time.UTC)
}

func TestTransaction(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantMatch  bool
		wantReason NoMatchReason
		check      func(t *testing.T, in TransactionIntent)
	}{
		{
			name:      "full extraction",
			response:  `{"extract": {"amount": 50, "description": "Mercado", "category": "Alimentação", "account": null, "tx_date": "2025-01-27"}}`,
			wantMatch: true,
			check: func(t *testing.T, in TransactionIntent) {
				if in.Amount != 50 || in.Description != "Mercado" || in.Category != "Alimentação" {
					t.Errorf("intent = %+v", in)
				}
				if in.Account != nil {
					t.Errorf("Account = %q, want nil", *in.Account)
				}
				if in.TxDate == nil || in.TxDate.String() != "2025-01-27" {
					t.Errorf("TxDate = %v", in.TxDate)
				}
			},
		},
		{
			name:      "fenced with string amount and account",
			response:  "```json\n{\"extract\": {\"amount\": \"12,50\", \"description\": \"Almoço\", \"category\": \"Alimentação\", \"account\": \"Nubank\"}}\n```",
			wantMatch: true,
			check: func(t *testing.T, in TransactionIntent) {
				if in.Amount != 12.5 {
					t.Errorf("Amount = %v, want 12.5", in.Amount)
				}
				if in.Account == nil || *in.Account != "Nubank" {
					t.Errorf("Account = %v, want Nubank", in.Account)
				}
				if in.TxDate != nil {
					t.Errorf("TxDate = %v, want nil when absent", in.TxDate)
				}
			},
		},
		{
			name:      "unparsable date left empty",
			response:  `{"extract": {"amount": 5, "description": "Café", "category": "Alimentação", "tx_date": "ontem"}}`,
			wantMatch: true,
			check: func(t *testing.T, in TransactionIntent) {
				if in.TxDate != nil {
					t.Errorf("TxDate = %v, want nil", in.TxDate)
				}
			},
		},
		{name: "not transactional", response: `{"extract": null}`, wantReason: ReasonNoIntent},
		{name: "missing key", response: `{"other": 1}`, wantReason: ReasonNoIntent},
		{name: "zero amount", response: `{"extract": {"amount": 0, "description": "x"}}`, wantReason: ReasonMalformed},
		{name: "missing amount", response: `{"extract": {"description": "x"}}`, wantReason: ReasonMalformed},
		{name: "prose only", response: "Olá! Como posso ajudar?", wantReason: ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := respond(tt.response)
			out := New(gen).WithClock(fixedClock).Transaction(context.Background(), "Gastei 50 no mercado")

			if !out.Audit.Called || out.Audit.Response != tt.response {
				t.Errorf("Audit = %+v", out.Audit)
			}
			if out.Matched() != tt.wantMatch {
				t.Fatalf("Matched() = %v, want %v (result %+v)", out.Matched(), tt.wantMatch, out.Result)
			}
			if !tt.wantMatch {
				nm, ok := out.Result.(NoMatch)
				if !ok || nm.Reason != tt.wantReason {
					t.Errorf("Result = %+v, want NoMatch{%s}", out.Result, tt.wantReason)
				}
				return
			}
			tt.check(t, out.Result.(TransactionIntent))
		})
	}
}

func TestTransaction_PromptCarriesDateAndMessage(t *testing.T) {
	gen := respond(`{"extract": null}`)
	out := New(gen).WithClock(fixedClock).Transaction(context.Background(), "paguei a luz")

	if !strings.Contains(out.Audit.Prompt, "Data de hoje: 2025-01-28") {
		t.Error("prompt missing today's date")
	}
	if !strings.HasSuffix(out.Audit.Prompt, "Mensagem: paguei a luz") {
		t.Error("prompt does not end with the message")
	}
	if !strings.Contains(out.Audit.Prompt, "Investimentos") {
		t.Error("prompt missing category set")
	}
	if gen.lastTemp != llm.ExtractionTemperature {
		t.Errorf("temperature = %v, want %v", gen.lastTemp, llm.ExtractionTemperature)
	}
}

func TestExtractor_Unavailable(t *testing.T) {
	e := New(llm.Disabled{})
	ctx := context.Background()

	for name, out := range map[string]Outcome{
		"transaction": e.Transaction(ctx, "gastei 10"),
		"shopping":    e.Shopping(ctx, "adiciona leite"),
		"price":       e.Price(ctx, "leite 5,90 no extra"),
	} {
		nm, ok := out.Result.(NoMatch)
		if !ok || nm.Reason != ReasonUnavailable {
			t.Errorf("%s: Result = %+v, want NoMatch{unavailable}", name, out.Result)
		}
		if out.Audit.Called {
			t.Errorf("%s: Audit.Called = true without a call", name)
		}
	}
}

func TestExtractor_CallFailed(t *testing.T) {
	boom := errors.New("connection reset")
	gen := &fakeGenerator{GenerateFunc: func(context.Context, string, float32) (string, error) { return "", boom }}

	out := New(gen).Shopping(context.Background(), "adiciona leite")
	nm, ok := out.Result.(NoMatch)
	if !ok || nm.Reason != ReasonCallFailed {
		t.Errorf("Result = %+v, want NoMatch{call_failed}", out.Result)
	}
	if !errors.Is(out.Err, boom) {
		t.Errorf("Err = %v, want %v", out.Err, boom)
	}
	if out.Audit.Called {
		t.Error("Audit.Called = true for a failed call")
	}
}

func TestShopping(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		want       *ShoppingIntent
		wantReason NoMatchReason
	}{
		{
			name:     "create with items",
			response: `{"action": "create_list", "list_name": null, "items": ["leite", " pão ", ""]}`,
			want:     &ShoppingIntent{Action: ActionCreateList, Items: []string{"leite", "pão"}},
		},
		{
			name:     "named list with literal null string",
			response: `{"action": "create_list", "list_name": "null", "items": []}`,
			want:     &ShoppingIntent{Action: ActionCreateList, Items: []string{}},
		},
		{
			name:     "add items in prose",
			response: "Entendi: {\"action\": \"add_items\", \"list_name\": \"Mercado\", \"items\": [\"café\"]}",
			want:     &ShoppingIntent{Action: ActionAddItems, ListName: "Mercado", Items: []string{"café"}},
		},
		{
			name:     "items not a list",
			response: `{"action": "check_items", "items": "leite"}`,
			want:     &ShoppingIntent{Action: ActionCheckItems, Items: []string{}},
		},
		{name: "null action", response: `{"action": null, "list_name": null, "items": []}`, wantReason: ReasonNoIntent},
		{name: "unknown action", response: `{"action": "delete_list", "items": []}`, wantReason: ReasonMalformed},
		{name: "garbage", response: `{{{`, wantReason: ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(respond(tt.response)).Shopping(context.Background(), "msg")
			if tt.want == nil {
				nm, ok := out.Result.(NoMatch)
				if !ok || nm.Reason != tt.wantReason {
					t.Errorf("Result = %+v, want NoMatch{%s}", out.Result, tt.wantReason)
				}
				return
			}

			got, ok := out.Result.(ShoppingIntent)
			if !ok {
				t.Fatalf("Result = %+v, want ShoppingIntent", out.Result)
			}
			if got.Action != tt.want.Action || got.ListName != tt.want.ListName {
				t.Errorf("got %+v, want %+v", got, *tt.want)
			}
			if strings.Join(got.Items, "|") != strings.Join(tt.want.Items, "|") {
				t.Errorf("Items = %q, want %q", got.Items, tt.want.Items)
			}
		})
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		want       *PriceReport
		wantReason NoMatchReason
	}{
		{
			name:     "numeric price",
			response: `{"product": "leite piracanjuba", "market": "guanabara", "price": 5.90}`,
			want:     &PriceReport{Product: "leite piracanjuba", Market: "guanabara", Price: 5.90},
		},
		{
			name:     "string price with comma",
			response: "```json\n{\"product\": \" café \", \"market\": \"atacadão\", \"price\": \"12,50\"}\n```",
			want:     &PriceReport{Product: "café", Market: "atacadão", Price: 12.50},
		},
		{name: "all null", response: `{"product": null, "market": null, "price": null}`, wantReason: ReasonNoIntent},
		{name: "missing market", response: `{"product": "leite", "market": null, "price": 5}`, wantReason: ReasonMalformed},
		{name: "empty product", response: `{"product": "", "market": "extra", "price": 5}`, wantReason: ReasonMalformed},
		{name: "missing price", response: `{"product": "leite", "market": "extra", "price": null}`, wantReason: ReasonMalformed},
		{name: "negative price", response: `{"product": "leite", "market": "extra", "price": -1}`, wantReason: ReasonMalformed},
		{name: "non numeric price", response: `{"product": "leite", "market": "extra", "price": "barato"}`, wantReason: ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(respond(tt.response)).Price(context.Background(), "msg")
			if tt.want == nil {
				nm, ok := out.Result.(NoMatch)
				if !ok || nm.Reason != tt.wantReason {
					t.Errorf("Result = %+v, want NoMatch{%s}", out.Result, tt.wantReason)
				}
				return
			}
			got, ok := out.Result.(PriceReport)
			if !ok {
				t.Fatalf("Result = %+v, want PriceReport", out.Result)
			}
			if got != *tt.want {
				t.Errorf("got %+v, want %+v", got, *tt.want)
			}
		})
	}
}
