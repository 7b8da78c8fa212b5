package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
  staticDir: static
database:
  driver: mysql
  host: 127.0.0.1
  port: 3306
  user: clin
  password: rahasia
  name: clinassist
oracle:
  provider: oracle
  host: http://oracle.internal:12345
  model: medllm-7b
  apiKey: file-key
  timeoutSeconds: 20
  maxAttempts: 3
  backoffSeconds: 2
security:
  apiKeys:
    frontend: abc123
cors:
  allowedOrigins:
    - https://app.example.com
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "medllm-7b", cfg.Oracle.Model)
	assert.Equal(t, "file-key", cfg.Oracle.APIKey)
	assert.Equal(t, map[string]string{"frontend": "abc123"}, cfg.Security.APIKeys)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)

	assert.Equal(t, 20*time.Second, cfg.OracleTimeout())
	assert.Equal(t, 2*time.Second, cfg.OracleBackoff())
}

func TestLoadEnvOverridesCredential(t *testing.T) {
	t.Setenv("ORACLE_API_KEY", "env-key")
	t.Setenv("FIELD_ENCRYPTION_KEY", "0123456789abcdef")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Oracle.APIKey)
	assert.Equal(t, "0123456789abcdef", cfg.Security.FieldKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t,
		"clin:rahasia@tcp(127.0.0.1:3306)/clinassist?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
}

func TestPostgresDSNDefaultsSSLMode(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Contains(t, cfg.PostgresDSN(), "sslmode=disable")
}
