package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/aggregator-demo/aggregator/internal/apperr"
)

type sample struct {
	Email  string  `json:"email" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
	From   string  `json:"from"`
	To     string  `json:"to" validate:"nefield=From"`
}

func TestStructWrapsInvalidRequest(t *testing.T) {
	err := Struct(sample{Amount: 0, From: "a", To: "a"})
	if !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"Email is required", "Amount must be greater than 0", "To must differ from From"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(sample{Email: "a@b.c", Amount: 1, From: "a", To: "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
