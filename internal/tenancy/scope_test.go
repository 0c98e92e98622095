package tenancy

import (
	"errors"
	"testing"
)

func TestSetResetRestoresPriorValues(t *testing.T) {
	s := NewScope()

	tok0 := s.SetTenant("")
	tokA := s.SetTenant("acme")
	tokB := s.SetTenant("beta")

	if got, _ := s.Tenant(); got != "beta" {
		t.Fatalf("expected beta, got %q", got)
	}
	if err := s.Reset(tokB); err != nil {
		t.Fatalf("reset tokB: %v", err)
	}
	if got, _ := s.Tenant(); got != "acme" {
		t.Fatalf("expected acme after reset, got %q", got)
	}
	if err := s.Reset(tokA); err != nil {
		t.Fatalf("reset tokA: %v", err)
	}
	if _, ok := s.Tenant(); ok {
		t.Fatalf("expected no tenant after reset")
	}
	if err := s.Reset(tok0); err != nil {
		t.Fatalf("reset tok0: %v", err)
	}
	if _, ok := s.Tenant(); ok {
		t.Fatalf("expected no tenant after full unwind")
	}
}

func TestNestedUnwindReturnsToInitialValue(t *testing.T) {
	s := NewScope()
	s.SetTenant("initial")

	var toks []*Token
	for _, id := range []string{"a", "b", "c", "d"} {
		toks = append(toks, s.SetTenant(id))
	}
	for i := len(toks) - 1; i >= 0; i-- {
		if err := s.Reset(toks[i]); err != nil {
			t.Fatalf("reset %d: %v", i, err)
		}
	}
	if got, _ := s.Tenant(); got != "initial" {
		t.Fatalf("expected initial, got %q", got)
	}
}

func TestTokenReuseFailsLoudly(t *testing.T) {
	s := NewScope()
	s.SetTenant("acme")
	tok := s.SetTenant("beta")

	if err := s.Reset(tok); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	err := s.Reset(tok)
	if !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused, got %v", err)
	}
	// The failed reset must not have touched the slot.
	if got, _ := s.Tenant(); got != "acme" {
		t.Fatalf("slot corrupted by reused token: %q", got)
	}
}

func TestForeignTokenRejected(t *testing.T) {
	a := NewScope()
	b := NewScope()
	tok := a.SetTenant("acme")

	if err := b.Reset(tok); !errors.Is(err, ErrForeignToken) {
		t.Fatalf("expected ErrForeignToken, got %v", err)
	}
	if err := b.Reset(nil); !errors.Is(err, ErrForeignToken) {
		t.Fatalf("expected ErrForeignToken for nil token, got %v", err)
	}
	// a's token is still usable after b's failed attempts.
	if err := a.Reset(tok); err != nil {
		t.Fatalf("reset on owning scope: %v", err)
	}
}

func TestBypassTokensNestIndependently(t *testing.T) {
	s := NewScope()
	s.SetTenant("acme")

	tok1 := s.SetBypass(true)
	tok2 := s.SetBypass(false)
	if s.Bypassed() {
		t.Fatalf("expected bypass false")
	}
	if err := s.Reset(tok2); err != nil {
		t.Fatalf("reset tok2: %v", err)
	}
	if !s.Bypassed() {
		t.Fatalf("expected bypass true after reset")
	}
	if err := s.Reset(tok1); err != nil {
		t.Fatalf("reset tok1: %v", err)
	}
	if s.Bypassed() {
		t.Fatalf("expected bypass false after full unwind")
	}
	// The bypass tokens never touched the tenant value.
	if got, _ := s.Tenant(); got != "acme" {
		t.Fatalf("tenant disturbed by bypass resets: %q", got)
	}
}
