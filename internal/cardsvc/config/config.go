package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds the card service settings read from the environment.
type Config struct {
	Port        string
	SupabaseURL string // e.g. https://xyz.supabase.co
	SupabaseKey string
	FixturesDir string
	RateLimit   int
	Tables      map[string]string // module id -> remote table name
}

func Load() (Config, error) {
	cfg := Config{
		Port:        getenv("CARD_SERVICE_PORT", "5000"),
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),
		FixturesDir: getenv("FIXTURES_DIR", "fixtures"),
		RateLimit:   300,
		Tables: map[string]string{
			"mod1": "mod1_cards",
			"mod2": "mod2_cards",
		},
	}

	if cfg.SupabaseURL == "" {
		return cfg, errors.New("SUPABASE_URL is required")
	}
	if cfg.SupabaseKey == "" {
		return cfg, errors.New("SUPABASE_KEY is required")
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.New("invalid RATE_LIMIT value: " + v)
		}
		cfg.RateLimit = limit
	}

	// MODULE_TABLES overrides the default module map, e.g.
	// "mod1:mod1_cards,mod2:mod2_cards"
	if v := os.Getenv("MODULE_TABLES"); v != "" {
		tables := map[string]string{}
		for _, pair := range strings.Split(v, ",") {
			module, table, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok || module == "" || table == "" {
				return cfg, errors.New("invalid MODULE_TABLES entry: " + pair)
			}
			tables[module] = table
		}
		cfg.Tables = tables
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
