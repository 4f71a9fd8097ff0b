package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "session_key: test-secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Listen)
	assert.Equal(t, 7200, cfg.SessionMaxAge)
	assert.Empty(t, cfg.Admins)
	assert.False(t, cfg.IsAdmin("admin"), "no account is an admin by default")
	assert.Equal(t, DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/mealshare.db", cfg.Database.Path)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 300, cfg.Cache.GetCacheTTLSeconds())
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, "/static/images/default-recipe-image.svg", cfg.Defaults.RecipeImage)
	assert.Equal(t, "/static/images/default-profile-picture.svg", cfg.Defaults.ProfileImage)
	assert.NotEmpty(t, cfg.Defaults.Recommendation)
	assert.False(t, cfg.Images.Enabled)
	assert.Equal(t, 480, cfg.Images.MaxWidth)
	assert.Equal(t, 7*24*time.Hour, cfg.Images.GetMaxAge())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
listen: "127.0.0.1:8080/"
server_url: "https://recipes.example.com/"
session_key: abc
admins: [" Chef ", admin]
database:
  driver: mongo
  mongo_uri: mongodb://localhost:27017
  mongo_database: recipes
cache:
  type: redis
  redis_url: localhost:6379
  ttl: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "https://recipes.example.com", cfg.ServerURL)
	assert.Equal(t, DatabaseDriverMongo, cfg.Database.Driver)
	assert.Equal(t, "recipes", cfg.Database.MongoDatabase)
	assert.Equal(t, 60, cfg.Cache.GetCacheTTLSeconds())
	assert.True(t, cfg.IsAdmin("CHEF"))
	assert.True(t, cfg.IsAdmin("admin"))
	assert.False(t, cfg.IsAdmin("alice"))
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("SECRET_KEY", "legacy-secret")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DBNAME", "legacy")
	path := writeConfig(t, "database:\n  driver: mongo\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", cfg.SessionKey)
	assert.Equal(t, "mongodb://db:27017", cfg.Database.MongoURI)
	assert.Equal(t, "legacy", cfg.Database.MongoDatabase)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing session key",
			content: "listen: :5000\n",
			wantErr: "session key is required",
		},
		{
			name:    "mongo without uri",
			content: "session_key: x\ndatabase:\n  driver: mongo\n",
			wantErr: "mongo URI is required",
		},
		{
			name:    "unknown driver",
			content: "session_key: x\ndatabase:\n  driver: postgres\n",
			wantErr: "unknown database driver",
		},
		{
			name:    "redis without url",
			content: "session_key: x\ncache:\n  type: redis\n",
			wantErr: "Redis URL is required",
		},
		{
			name:    "email without sender",
			content: "session_key: x\nemail:\n  enabled: true\n  smtp_host: smtp.example.com\n",
			wantErr: "from email is required",
		},
		{
			name:    "sendgrid without key",
			content: "session_key: x\nemail:\n  enabled: true\n  provider: sendgrid\n  from_email: a@b.c\n",
			wantErr: "sendgrid API key is required",
		},
		{
			name:    "bad newsletter schedule",
			content: "session_key: x\nnewsletter:\n  enabled: true\n  schedule: \"every monday\"\n",
			wantErr: "newsletter schedule must be a valid cron expression",
		},
		{
			name:    "image quality out of range",
			content: "session_key: x\nimages:\n  enabled: true\n  quality: 150\n",
			wantErr: "image quality must be between 1 and 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsAdmin_NilConfig(t *testing.T) {
	var c *Config
	assert.False(t, c.IsAdmin("admin"))
}
