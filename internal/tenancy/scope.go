// Package tenancy holds the tenant identity for a unit of work and the
// primitives that keep it from leaking across concurrent requests,
// fan-outs, and background jobs. The slot travels explicitly inside a
// context.Context; it is never ambient process state.
package tenancy

// Scope is the per-unit-of-work slot holding the current tenant id and the
// scoping bypass flag. Every request, spawned subtask, and background job
// owns exactly one Scope; mutating one never affects another.
//
// A Scope must only be mutated by the goroutine running its unit of work.
// Concurrent children get their own Scope via Gather, Spawn, or Group,
// never a shared pointer to the parent's.
type Scope struct {
	tenant string
	bypass bool
}

// NewScope returns an empty slot: no tenant, scoping enabled.
func NewScope() *Scope { return &Scope{} }

// Tenant returns the current tenant id. The empty id means no tenant is
// established.
func (s *Scope) Tenant() (string, bool) {
	return s.tenant, s.tenant != ""
}

// Bypassed reports whether automatic query scoping is disabled for this slot.
func (s *Scope) Bypassed() bool { return s.bypass }

type tokenKind int

const (
	tenantToken tokenKind = iota
	bypassToken
)

// Token is a single-use handle capturing the value a slot held before a set.
// Reset consumes it; a second Reset fails with ErrTokenReused. Sets and
// resets nest strictly LIFO: a reset restores the immediately preceding
// value for the slot.
type Token struct {
	scope      *Scope
	kind       tokenKind
	prevTenant string
	prevBypass bool
	consumed   bool
}

// SetTenant replaces the slot's tenant id and returns the token needed to
// restore the prior value. Setting the empty id establishes "no tenant".
// SetTenant never fails.
func (s *Scope) SetTenant(id string) *Token {
	t := &Token{scope: s, kind: tenantToken, prevTenant: s.tenant}
	s.tenant = id
	return t
}

// SetBypass replaces the bypass flag and returns the restore token.
func (s *Scope) SetBypass(v bool) *Token {
	t := &Token{scope: s, kind: bypassToken, prevBypass: s.bypass}
	s.bypass = v
	return t
}

// Reset restores the value captured by tok. It fails with ErrTokenReused if
// tok was already consumed and ErrForeignToken if tok belongs to another
// scope; in both cases the slot is left untouched.
func (s *Scope) Reset(tok *Token) error {
	if tok == nil || tok.scope != s {
		return ErrForeignToken
	}
	if tok.consumed {
		return ErrTokenReused
	}
	tok.consumed = true
	switch tok.kind {
	case tenantToken:
		s.tenant = tok.prevTenant
	case bypassToken:
		s.bypass = tok.prevBypass
	}
	return nil
}

// mustReset restores a token this package itself issued and fully controls.
// Failure means the slot discipline was corrupted, which is a defect worth
// crashing over rather than running queries against the wrong tenant.
func mustReset(s *Scope, tok *Token) {
	if err := s.Reset(tok); err != nil {
		panic(err)
	}
}
