package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// FieldIDs maps application data onto the upstream CRM's custom fields.
// The CRM addresses custom fields by opaque ID, so the mapping is
// deployment configuration, not code.
type FieldIDs struct {
	Password   string
	Plan       string
	Research   string
	ResearchAt string
}

// Config holds all runtime settings, read once at startup and passed by
// injection. There is no other process-wide state.
type Config struct {
	Port        string
	Environment string

	UpstreamBaseURL string
	UpstreamAPIKey  string
	UpstreamTimeout time.Duration

	Fields FieldIDs

	// AllowedOrigins are exact web origins permitted by CORS; any
	// chrome-extension:// origin is additionally allowed for the browser
	// extension.
	AllowedOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load builds a Config from environment variables. UPSTREAM_API_KEY is the
// only hard requirement; everything else has a development default.
func Load() (*Config, error) {
	key := os.Getenv("UPSTREAM_API_KEY")
	if key == "" {
		return nil, errors.New("UPSTREAM_API_KEY is required")
	}

	cfg := &Config{
		Port:            getenv("PORT", "8440"),
		Environment:     getenv("ENVIRONMENT", "development"),
		UpstreamBaseURL: strings.TrimRight(getenv("UPSTREAM_BASE_URL", "https://api.crm.example.com/v1"), "/"),
		UpstreamAPIKey:  key,
		UpstreamTimeout: 10 * time.Second,
		Fields: FieldIDs{
			Password:   getenv("FIELD_ID_PASSWORD", "cf_password"),
			Plan:       getenv("FIELD_ID_PLAN", "cf_plan"),
			Research:   getenv("FIELD_ID_RESEARCH", "cf_research_data"),
			ResearchAt: getenv("FIELD_ID_RESEARCH_AT", "cf_research_at"),
		},
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 30),
	}

	origins := getenv("ALLOWED_ORIGINS", "https://app.researchclip.io,https://researchclip.io")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
