package gotrue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creasion/crm/internal/errs"
)

const testUserID = "6b7f5ad0-7b1e-4f23-a6de-3f5f0e5a9c11"

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		URL:       srv.URL,
		AnonKey:   "anon-key",
		TokenPath: filepath.Join(t.TempDir(), "session.json"),
	})
}

func writeToken(w http.ResponseWriter, email string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "tok-abc",
		"expires_in":   3600,
		"user":         map[string]string{"id": testUserID, "email": email},
	})
}

func TestSignIn_OK_CachesSession(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "op@example.com", body["email"])
		writeToken(w, "op@example.com")
	}))

	s, err := p.SignIn(context.Background(), "op@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "op@example.com", s.Email)
	require.Equal(t, "tok-abc", s.AccessToken)
	require.Equal(t, testUserID, s.UserID.String())
	require.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Minute)

	// session survives as a cache for the next load
	sf, err := p.loadSession()
	require.NoError(t, err)
	require.Equal(t, "tok-abc", sf.AccessToken)
}

func TestSignIn_BadCredentials_KeepsServerMessage(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
	}))

	_, err := p.SignIn(context.Background(), "op@example.com", "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Contains(t, err.Error(), "Invalid login credentials")
}

func TestSession_Restores_WhenRemoteAccepts(t *testing.T) {
	var userCalls int
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			writeToken(w, "op@example.com")
		case "/auth/v1/user":
			userCalls++
			require.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{"id": testUserID, "email": "op@example.com"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	_, err := p.SignIn(context.Background(), "op@example.com", "pw")
	require.NoError(t, err)

	s, err := p.Session(context.Background())
	require.NoError(t, err)
	require.Equal(t, "op@example.com", s.Email)
	require.Equal(t, 1, userCalls)
}

func TestSession_NoCache_ReturnsNotFound(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := p.Session(context.Background())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSession_RevokedRemotely_DropsCache(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			writeToken(w, "op@example.com")
		case "/auth/v1/user":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))

	_, err := p.SignIn(context.Background(), "op@example.com", "pw")
	require.NoError(t, err)

	_, err = p.Session(context.Background())
	require.ErrorIs(t, err, errs.ErrNotFound)

	// cache is gone, no further network traffic needed to know that
	_, err = p.loadSession()
	require.Error(t, err)
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/signup", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]string{"id": testUserID, "email": "op@example.com"},
		})
	}))

	res, err := p.SignUp(context.Background(), "op@example.com", "pw")
	require.NoError(t, err)
	require.Nil(t, res.Session)
	require.Empty(t, res.Challenge)
}

func TestSignUp_AutoConfirm_ReturnsSession(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "op@example.com")
	}))

	res, err := p.SignUp(context.Background(), "op@example.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	require.Equal(t, "op@example.com", res.Session.Email)
}

func TestSignOut_RevokesAndDropsCache(t *testing.T) {
	var logoutCalls int
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			writeToken(w, "op@example.com")
		case "/auth/v1/logout":
			logoutCalls++
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	_, err := p.SignIn(context.Background(), "op@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(context.Background()))
	require.Equal(t, 1, logoutCalls)

	_, err = p.loadSession()
	require.Error(t, err)
}

func TestSignOut_NoSession_IsNoop(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	require.NoError(t, p.SignOut(context.Background()))
}
