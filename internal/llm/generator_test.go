package llm

import (
	"context"
	"errors"
	"testing"
)

func TestDisabled(t *testing.T) {
	var g Generator = Disabled{}

	out, err := g.Generate(context.Background(), "oi", ChatTemperature)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Generate() error = %v, want ErrNotConfigured", err)
	}
	if out != "" {
		t.Errorf("Generate() = %q, want empty", out)
	}
	if IsConfigured(g) {
		t.Error("IsConfigured(Disabled) = true")
	}
	if IsConfigured(nil) {
		t.Error("IsConfigured(nil) = true")
	}
}

func TestNew_NoAPIKey(t *testing.T) {
	g, err := New(context.Background(), "  ", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := g.(Disabled); !ok {
		t.Errorf("New() = %T, want Disabled", g)
	}
}
