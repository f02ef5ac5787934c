package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RESPHONE_SECRET", "password", "BLOB_BACKEND", "AWS_REGION", "AWS_ENDPOINT_URL",
		"S3_BUCKET", "DDB_TABLE", "REDIS_URL", "CONFIG_KEY", "AUDIT_TIMEZONE",
		"CLIENT_IP_HEADER", "HTTP_ADDR", "LOG_LEVEL", "MEMORY_SEED_FILE", "AUTH_WINDOW_SECONDS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_BUCKET", "resphone")

	e, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendS3, e.Backend)
	assert.Equal(t, "resphone", e.Bucket)
	assert.Equal(t, "resphone.json", e.Key)
	assert.Equal(t, 60*time.Second, e.AuthWindow)
	assert.Equal(t, "CF-Connecting-IP", e.ClientIPHeader)
	assert.Empty(t, e.Secret, "missing secret is allowed at startup")

	loc, err := e.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())
}

func TestLoadSecretAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("BLOB_BACKEND", "memory")
	t.Setenv("password", "legacy")

	e, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", e.Secret)

	t.Setenv("RESPHONE_SECRET", "primary")
	e, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "primary", e.Secret)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "resphone.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: dynamodb
table: from-file
region: auto
timezone: America/New_York
auth_window_seconds: 30
client_ip_header: X-Forwarded-For
`), 0o600))
	t.Setenv("DDB_TABLE", "from-env")

	e, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, e.Backend)
	assert.Equal(t, "from-env", e.Table)
	assert.Equal(t, "auto", e.Region)
	assert.Equal(t, 30*time.Second, e.AuthWindow)
	assert.Equal(t, "X-Forwarded-For", e.ClientIPHeader)
	assert.Equal(t, "America/New_York", e.TimeZone)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "s3 without bucket", env: map[string]string{"BLOB_BACKEND": "s3"}},
		{name: "dynamodb without table", env: map[string]string{"BLOB_BACKEND": "dynamodb"}},
		{name: "redis without url", env: map[string]string{"BLOB_BACKEND": "redis"}},
		{name: "unknown backend", env: map[string]string{"BLOB_BACKEND": "ftp"}},
		{name: "bad window", env: map[string]string{"BLOB_BACKEND": "memory", "AUTH_WINDOW_SECONDS": "-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}

	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMustLoadPanics(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESPHONE_CONFIG", "")
	t.Setenv("BLOB_BACKEND", "s3")
	assert.Panics(t, func() { MustLoad() })
}
