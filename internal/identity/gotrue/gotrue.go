// Package gotrue authenticates against a GoTrue-compatible auth
// endpoint (Supabase Auth) over its REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/identity"
)

// Config points the provider at an auth endpoint and a local file for
// the cached session.
type Config struct {
	URL       string // base URL, e.g. https://xyz.supabase.co
	AnonKey   string // public API key sent as the apikey header
	TokenPath string // where the session is cached between runs
}

// Provider implements identity.Provider over GoTrue REST.
type Provider struct {
	cfg    Config
	client *http.Client
}

// New constructs a GoTrue provider.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

type sessionFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// Session restores the cached session and revalidates the token
// against the auth endpoint.
func (p *Provider) Session(ctx context.Context) (*identity.Session, error) {
	sf, err := p.loadSession()
	if err != nil {
		return nil, errs.ErrNotFound
	}
	if time.Now().After(sf.ExpiresAt) {
		_ = os.Remove(p.cfg.TokenPath)
		return nil, errs.ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+sf.AccessToken)
	req.Header.Set("apikey", p.cfg.AnonKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_ = os.Remove(p.cfg.TokenPath)
		return nil, errs.ErrNotFound
	}
	return sf.toSession()
}

// SignIn performs a password grant and caches the resulting session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	var tr tokenResponse
	err := p.post(ctx, "/auth/v1/token?grant_type=password",
		map[string]string{"email": email, "password": password}, &tr)
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, errs.ErrUnauthorized
	}

	sf := sessionFile{
		AccessToken: tr.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		UserID:      tr.User.ID,
		Email:       tr.User.Email,
	}
	if err := p.saveSession(sf); err != nil {
		return nil, err
	}
	return sf.toSession()
}

// SignUp registers a new account. When the endpoint confirms accounts
// by email, the result carries neither a session nor a challenge and
// the caller waits for the out-of-band confirmation.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*identity.SignUpResult, error) {
	var tr tokenResponse
	err := p.post(ctx, "/auth/v1/signup",
		map[string]string{"email": email, "password": password}, &tr)
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return &identity.SignUpResult{}, nil
	}

	sf := sessionFile{
		AccessToken: tr.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		UserID:      tr.User.ID,
		Email:       tr.User.Email,
	}
	if err := p.saveSession(sf); err != nil {
		return nil, err
	}
	s, err := sf.toSession()
	if err != nil {
		return nil, err
	}
	return &identity.SignUpResult{Session: s}, nil
}

// SignOut revokes the token remotely (best effort) and always discards
// the local session cache.
func (p *Provider) SignOut(ctx context.Context) error {
	if sf, err := p.loadSession(); err == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/auth/v1/logout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+sf.AccessToken)
			req.Header.Set("apikey", p.cfg.AnonKey)
			if resp, err := p.client.Do(req); err == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}
	}
	if err := os.Remove(p.cfg.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (p *Provider) post(ctx context.Context, path string, body map[string]string, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.cfg.AnonKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		msg := ""
		if b, rerr := io.ReadAll(resp.Body); rerr == nil {
			if json.Unmarshal(b, &er) == nil {
				switch {
				case er.ErrorDescription != "":
					msg = er.ErrorDescription
				case er.Msg != "":
					msg = er.Msg
				case er.Error != "":
					msg = er.Error
				}
			}
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", errs.ErrUnauthorized, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *Provider) saveSession(sf sessionFile) error {
	if err := os.MkdirAll(filepath.Dir(p.cfg.TokenPath), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.cfg.TokenPath, raw, 0o600)
}

func (p *Provider) loadSession() (sessionFile, error) {
	var sf sessionFile
	b, err := os.ReadFile(p.cfg.TokenPath)
	if err != nil {
		return sf, err
	}
	if err := json.Unmarshal(b, &sf); err != nil {
		return sf, err
	}
	if sf.AccessToken == "" {
		return sf, errors.New("empty session cache")
	}
	return sf, nil
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
