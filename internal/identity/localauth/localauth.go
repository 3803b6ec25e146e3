// Package localauth is the built-in identity provider: accounts live
// in the application's own users table, passwords are hashed with
// argon2id and sessions are short-lived HS256 tokens cached on disk.
package localauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/creasion/crm/internal/crypto"
	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/identity"
	"github.com/creasion/crm/internal/limiter"
	"github.com/creasion/crm/internal/model"
	"github.com/creasion/crm/internal/repository"
)

// Sign-in attempts are throttled per email; the second limiter key is
// a hash of the client host, which for this provider is always local.
const limiterHost = "local"

// Provider implements identity.Provider backed by the users repository.
type Provider struct {
	users     repository.UserRepository
	lim       limiter.Limiter
	signKey   []byte
	accessTTL time.Duration
	tokenPath string
}

// New constructs a local auth provider.
func New(users repository.UserRepository, lim limiter.Limiter, signKey []byte, accessTTL time.Duration, tokenPath string) *Provider {
	return &Provider{users: users, lim: lim, signKey: signKey, accessTTL: accessTTL, tokenPath: tokenPath}
}

type sessionFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
}

// SignUp creates an unverified account and returns the verification
// challenge the user must present before the first sign-in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*identity.SignUpResult, error) {
	if email == "" || password == "" {
		return nil, errors.New("empty email/password")
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	saltAuth, err := pkgcrypto.RandBytes(pkgcrypto.SaltLen)
	if err != nil {
		return nil, err
	}
	challenge, err := pkgcrypto.NewChallengeToken()
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:          uid,
		Email:       email,
		PwdHash:     pkgcrypto.HashPassword([]byte(password), saltAuth),
		SaltAuth:    saltAuth,
		Verified:    false,
		VerifyToken: challenge,
	}
	if err := p.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return &identity.SignUpResult{Challenge: challenge}, nil
}

// Verify completes the challenge issued at sign-up.
func (p *Provider) Verify(ctx context.Context, challenge string) error {
	return p.users.MarkVerified(ctx, challenge)
}

// SignIn authenticates with rate limiting and caches the session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	hostHash := limiter.HashIP(limiterHost)

	allowed, _, err := p.lim.Allow(ctx, email, hostHash)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errs.ErrRateLimited
	}

	u, err := p.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := p.lim.Failure(ctx, email, hostHash); ferr == nil && blocked {
			return nil, errs.ErrRateLimited
		}
		// hide whether the account exists
		return nil, errs.ErrUnauthorized
	}
	if !u.Verified {
		return nil, errs.ErrVerificationRequired
	}

	_ = p.lim.Success(ctx, email, hostHash)

	now := time.Now()
	exp := now.Add(p.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signKey)
	if err != nil {
		return nil, err
	}

	sf := sessionFile{AccessToken: signed, ExpiresAt: exp, UserID: u.ID.String(), Email: u.Email}
	if err := p.saveSession(sf); err != nil {
		return nil, err
	}
	return sf.toSession()
}

// Session restores the cached session, checking the token signature
// and expiry.
func (p *Provider) Session(ctx context.Context) (*identity.Session, error) {
	b, err := os.ReadFile(p.tokenPath)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil || sf.AccessToken == "" {
		return nil, errs.ErrNotFound
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(sf.AccessToken, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.signKey, nil
	})
	if err != nil {
		_ = os.Remove(p.tokenPath)
		return nil, errs.ErrNotFound
	}
	return sf.toSession()
}

// SignOut discards the cached session.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := os.Remove(p.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (p *Provider) saveSession(sf sessionFile) error {
	if err := os.MkdirAll(filepath.Dir(p.tokenPath), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.tokenPath, raw, 0o600)
}

func (sf sessionFile) toSession() (*identity.Session, error) {
	uid, err := uuid.FromString(sf.UserID)
	if err != nil {
		return nil, fmt.Errorf("bad user id in session: %w", err)
	}
	return &identity.Session{
		UserID:      uid,
		Email:       sf.Email,
		AccessToken: sf.AccessToken,
		ExpiresAt:   sf.ExpiresAt,
	}, nil
}
