package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("BOT_OWNER_ID", "100")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, "!", cfg.DefaultPrefix)
	assert.Equal(t, DriverBadger, cfg.Database.Driver)
	assert.Equal(t, "./data", cfg.Database.DataPath)
	assert.Equal(t, "pookie", cfg.Database.MongoDatabase)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.NoPrefixUsers)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "DISCORD_BOT_TOKEN=fromfile\nBOT_OWNER_ID=1\nNO_PREFIX_USERS=2,3\nDB_DRIVER=json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// godotenv does not override variables that are already set
	for _, k := range []string{"DISCORD_BOT_TOKEN", "BOT_OWNER_ID", "NO_PREFIX_USERS", "DB_DRIVER"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Token)
	assert.Equal(t, []string{"2", "3"}, cfg.NoPrefixUsers)
	assert.Equal(t, DriverJSON, cfg.Database.Driver)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("DISCORD_BOT_TOKEN"))
	t.Setenv("BOT_OWNER_ID", "100")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Token:         "t",
			OwnerID:       "1",
			DefaultPrefix: "!",
			Database:      Database{Driver: DriverBadger},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty prefix", func(c *Config) { c.DefaultPrefix = "" }, true},
		{"long prefix", func(c *Config) { c.DefaultPrefix = "abcdef" }, true},
		{"mongo without uri", func(c *Config) { c.Database.Driver = DriverMongo }, true},
		{"mongo with uri", func(c *Config) {
			c.Database.Driver = DriverMongo
			c.Database.MongoURI = "mongodb://localhost"
		}, false},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "redis" }, true},
		{"negative shards", func(c *Config) { c.Shards = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsNoPrefixUser(t *testing.T) {
	c := &Config{OwnerID: "1", NoPrefixUsers: []string{"2"}}
	assert.True(t, c.IsNoPrefixUser("1"))
	assert.True(t, c.IsNoPrefixUser("2"))
	assert.False(t, c.IsNoPrefixUser("3"))
}
