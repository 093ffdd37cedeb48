package extraction

import (
	"testing"
)

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare", raw: `{"a": "x"}`, want: "x"},
		{name: "fenced json", raw: "```json\n{\"a\": \"x\"}\n```", want: "x"},
		{name: "fenced plain", raw: "```\n{\"a\": \"x\"}\n```", want: "x"},
		{name: "prose around", raw: "Claro! Aqui está: {\"a\": \"x\"} Espero ter ajudado.", want: "x"},
		{name: "prose then fence", raw: "Resposta:\n```json\n{\"a\": \"x\"}\n```\nfim", want: "x"},
		{name: "braces inside strings", raw: `resultado {"a": "x}{y"} e mais {"a": "z"}`, want: "x}{y"},
		{name: "nested object", raw: `ok {"b": {"c": 1}, "a": "x"} tchau`, want: "x"},
		{name: "escaped quote", raw: `-> {"a": "say \"}\" now"}`, want: `say "}" now`},
		{name: "no object", raw: "não sei", wantErr: true},
		{name: "unbalanced", raw: `texto {"a": "x"`, wantErr: true},
		{name: "invalid json", raw: `{"a": x}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				A string `json:"a"`
			}
			err := decodeModelJSON(tt.raw, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeModelJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.A != tt.want {
				t.Errorf("decodeModelJSON() a = %q, want %q", got.A, tt.want)
			}
		})
	}
}

func TestParseLocalizedNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"5.90", 5.90, false},
		{"5,90", 5.90, false},
		{"1.234,56", 1234.56, false},
		{"R$ 12,50", 12.50, false},
		{" 6 ", 6, false},
		{"seis", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLocalizedNumber(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLocalizedNumber(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLocalizedNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
