package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ProjectID       string
	LogLevel        string
	Port            string
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	VerifyTokens    bool
	SessionMax      int
	SessionTTL      time.Duration
	MaxChartPoints  int
	ExportTimeout   time.Duration
}

func New() *Config {
	return &Config{
		ProjectID:       os.Getenv("PROJECTID"),
		LogLevel:        os.Getenv("LOGLEVEL"),
		Port:            getString("PORT", "8080"),
		UpstreamBaseURL: getString("UPSTREAMBASEURL", "http://localhost:8000/api"),
		UpstreamTimeout: getDuration("UPSTREAMTIMEOUT", 30*time.Second),
		VerifyTokens:    getBool("VERIFYTOKENS", false),
		SessionMax:      getInt("SESSIONMAX", 1000),
		SessionTTL:      getDuration("SESSIONTTL", 30*time.Minute),
		MaxChartPoints:  getInt("MAXCHARTPOINTS", 100),
		ExportTimeout:   getDuration("EXPORTTIMEOUT", 5*time.Minute),
	}
}

// ---- Helpers ----
// unset or unparsable values fall back to the default

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
