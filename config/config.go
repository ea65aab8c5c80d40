package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreMysql  = "mysql"
)

type Config struct {
	BackendURL    string
	ListenAddr    string
	SessionSecret string
	CookieSecure  bool
	LogLevel      string

	TokenStore    string
	MysqlUser     string
	MysqlPassword string
	MysqlHost     string
	MysqlDatabase string
}

// Load reads the optional env files (".env" when none are given) and then
// the process environment. Values already present in the environment win
// over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := &Config{
		BackendURL:    strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		TokenStore:    strings.ToLower(getenv("TOKEN_STORE", StoreMemory)),
		MysqlUser:     os.Getenv("MYSQL_USER"),
		MysqlPassword: os.Getenv("MYSQL_PASSWORD"),
		MysqlHost:     getenv("MYSQL_HOST", "127.0.0.1:3306"),
		MysqlDatabase: os.Getenv("MYSQL_DATABASE"),
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = secure
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	switch c.TokenStore {
	case StoreMemory:
	case StoreMysql:
		if c.MysqlUser == "" || c.MysqlDatabase == "" {
			return errors.New("MYSQL_USER and MYSQL_DATABASE are required for the mysql token store")
		}
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
