package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vango-dev/scaffold/internal/errors"
)

// Environment variables read by loadEnv.
const (
	EnvMode     = "SCAFFOLD_ENV"
	EnvNodeMode = "NODE_ENV"
	EnvPort     = "SCAFFOLD_PORT"
	EnvHost     = "SCAFFOLD_HOST"
	EnvBucket   = "SCAFFOLD_DEPLOY_BUCKET"
)

// EnvFileName is the dotenv file loaded next to the configuration.
const EnvFileName = ".env"

// loadEnv loads the project's .env file, then applies environment overrides.
// Variables already present in the process environment are never replaced by
// the file.
func (c *Config) loadEnv() error {
	if dir := c.Dir(); dir != "" {
		path := filepath.Join(dir, EnvFileName)
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return errors.New("E107").WithDetail(path).Wrap(err)
			}
		}
	}
	return c.ApplyEnv()
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() error {
	if mode, ok := lookupEnv(EnvMode, EnvNodeMode); ok {
		c.Mode = ParseMode(mode)
	}
	if port, ok := lookupEnv(EnvPort); ok {
		n, err := strconv.Atoi(port)
		if err != nil {
			return errors.New("E102").WithDetail(EnvPort + "=" + port + " is not a number")
		}
		c.Dev.Port = n
		c.Serve.Port = n
	}
	if host, ok := lookupEnv(EnvHost); ok {
		c.Dev.Host = host
		c.Serve.Host = host
	}
	if bucket, ok := lookupEnv(EnvBucket); ok {
		c.Deploy.Bucket = bucket
	}
	return nil
}

// ParseMode maps common spellings to a Mode. Unknown values are returned
// as-is so Validate can report them.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return ModeDevelopment
	case "production", "prod":
		return ModeProduction
	default:
		return Mode(s)
	}
}

func lookupEnv(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
