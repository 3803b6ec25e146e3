package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CRM_APPROVED_EMAIL", "CRM_DATABASE_DSN", "CRM_AUTH_URL", "CRM_AUTH_ANON_KEY",
		"CRM_JWT_KEY", "CRM_ACCESS_TTL", "CRM_LIMITER_WINDOW", "CRM_LIMITER_MAX_FAILS",
		"CRM_LIMITER_BLOCK", "CRM_MIRROR_PATH", "CRM_TOKEN_PATH",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CRM_APPROVED_EMAIL", "op@example.com")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "op@example.com", c.ApprovedEmail)
	require.Equal(t, 15*time.Minute, c.AccessTTL)
	require.Equal(t, 5, c.LimiterMaxFails)
	require.NotEmpty(t, c.MirrorPath)
	require.NotEmpty(t, c.TokenPath)
	require.False(t, c.UsesGoTrue())
}

func TestLoad_MissingApprovedEmail(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_BuiltinAuthNeedsSigningKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("CRM_APPROVED_EMAIL", "op@example.com")
	t.Setenv("CRM_DATABASE_DSN", "postgres://crm@localhost/crm")

	_, err := Load("")
	require.Error(t, err)

	t.Setenv("CRM_JWT_KEY", "secret-key")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "secret-key", c.SigningKey)
}

func TestLoad_GoTrueMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("CRM_APPROVED_EMAIL", "op@example.com")
	t.Setenv("CRM_DATABASE_DSN", "postgres://crm@localhost/crm")
	t.Setenv("CRM_AUTH_URL", "https://xyz.supabase.co")
	t.Setenv("CRM_AUTH_ANON_KEY", "anon")

	c, err := Load("")
	require.NoError(t, err)
	require.True(t, c.UsesGoTrue())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	envPath := filepath.Join(t.TempDir(), "crm.env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"CRM_APPROVED_EMAIL=op@example.com\nCRM_ACCESS_TTL=1h\n"), 0o600))

	c, err := Load(envPath)
	require.NoError(t, err)
	require.Equal(t, "op@example.com", c.ApprovedEmail)
	require.Equal(t, time.Hour, c.AccessTTL)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
}
