// Package config defines service configuration structures and loading hooks.
//
// All secrets and tunables are loaded once at process start and handed to
// components by reference; nothing reads the environment after Load returns.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CORSOrigin is echoed in Access-Control-Allow-Origin on the API routes.
	CORSOrigin string `koanf:"cors_origin"`

	// HMACSecret signs proof-of-freshness tokens. Required.
	HMACSecret string `koanf:"hmac_secret"`

	// Pepper is mixed into client address hashes. Required.
	Pepper string `koanf:"pepper"`

	// TokenTTLSecs is the token issuance-to-expiry window.
	TokenTTLSecs int `koanf:"token_ttl_secs"`

	// ClockSkewSecs bounds the tolerated client/server clock difference.
	ClockSkewSecs int `koanf:"clock_skew_secs"`

	// RateLimitPerMin caps accepted submissions per client bucket per window.
	RateLimitPerMin int `koanf:"rate_limit_per_min"`

	// RateWindowSecs is the trailing rate-limit window.
	RateWindowSecs int `koanf:"rate_window_secs"`

	// RateCounter selects the recent-count backend: "rest" or "redis".
	RateCounter string `koanf:"rate_counter"`

	// RedisAddr is the Redis address used when RateCounter is "redis".
	RedisAddr string `koanf:"redis_addr"`

	// StoreURL is the base URL of the row-store collaborator. Required.
	StoreURL string `koanf:"store_url"`

	// StoreServiceKey authenticates requests to the row store. Required.
	StoreServiceKey string `koanf:"store_service_key"`

	// MaxScore is the absolute submission score ceiling.
	MaxScore float64 `koanf:"max_score"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultLeaderboardLimit applies when no limit is given.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`

	// SubmitBurstRPS enables a process-local burst guard on /api/submit
	// when positive; 0 disables it.
	SubmitBurstRPS float64 `koanf:"submit_burst_rps"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		CORSOrigin:              "*",
		TokenTTLSecs:            900,
		ClockSkewSecs:           900,
		RateLimitPerMin:         10,
		RateWindowSecs:          60,
		RateCounter:             "rest",
		RedisAddr:               "localhost:6379",
		MaxScore:                2_000_000_000,
		MaxLeaderboardLimit:     1000,
		DefaultLeaderboardLimit: 100,
		SubmitBurstRPS:          0,
	}
}
