package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port         string   `env:"PORT" envDefault:"3000"`
	DatabaseURL  string   `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret    string   `env:"JWT_SECRET,required,notEmpty"`
	Domain       string   `env:"DOMAIN"`
	QRExpiryDays int      `env:"QR_CODE_EXPIRY_DAYS" envDefault:"30"`
	ClientURL    string   `env:"CLIENT_URL"`
	ExtraOrigins []string `env:"ALLOWED_ORIGINS"`
}

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// App holds the parsed configuration for the running process.
var App Config

// Init parses configuration from environment variables into App.
func Init() error {
	if err := env.Parse(&App); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// CORSOrigins returns the development defaults plus any origins configured
// through CLIENT_URL and ALLOWED_ORIGINS.
func (c Config) CORSOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if c.ClientURL != "" {
		origins = append(origins, c.ClientURL)
	}

	for _, origin := range c.ExtraOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
