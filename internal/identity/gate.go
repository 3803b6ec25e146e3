package identity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/creasion/crm/internal/errs"
)

// Gate wraps a Provider and admits exactly one approved email. Any
// other identity that authenticates successfully is signed out again
// and rejected, so a leaked credential for a different account cannot
// read the document.
type Gate struct {
	provider Provider
	approved string
	log      *zap.Logger
}

// NewGate constructs a gate admitting only approvedEmail
// (case-insensitive).
func NewGate(p Provider, approvedEmail string, log *zap.Logger) *Gate {
	return &Gate{provider: p, approved: strings.ToLower(strings.TrimSpace(approvedEmail)), log: log}
}

// Restore returns the cached session if it belongs to the approved
// operator.
func (g *Gate) Restore(ctx context.Context) (*Session, error) {
	s, err := g.provider.Session(ctx)
	if err != nil {
		return nil, err
	}
	return g.admit(ctx, s)
}

// SignIn authenticates and admits only the approved operator.
func (g *Gate) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return g.admit(ctx, s)
}

// SignUp registers a new account. The gate applies at sign-in, not at
// registration, matching the provider's own flow.
func (g *Gate) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	return g.provider.SignUp(ctx, email, password)
}

// SignOut discards the cached session.
func (g *Gate) SignOut(ctx context.Context) error {
	return g.provider.SignOut(ctx)
}

func (g *Gate) admit(ctx context.Context, s *Session) (*Session, error) {
	if strings.EqualFold(strings.TrimSpace(s.Email), g.approved) {
		return s, nil
	}
	g.log.Warn("rejected unapproved identity", zap.String("email", s.Email))
	if err := g.provider.SignOut(ctx); err != nil {
		g.log.Warn("sign-out after rejection failed", zap.Error(err))
	}
	return nil, errs.ErrUnauthorizedIdentity
}
