package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// DatabaseConfig is the connection contract between the application server
// and the database service. The same values seed the database container's own
// bootstrap environment, so the two sides cannot drift apart.
type DatabaseConfig struct {
	Engine   string `env:"SQL_ENGINE,default=postgres"`
	Name     string `env:"SQL_DATABASE,default=app"`
	User     string `env:"SQL_USER,default=app"`
	Password string `env:"SQL_PASSWORD,default=app"`
	Host     string `env:"SQL_HOST,default=db"`
	Port     int    `env:"SQL_PORT,default=5432"`
}

// DSN renders the database URL used by both the readiness probe and the
// migration step.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   c.Engine,
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RuntimeConfig is the environment contract of the running application
// container. Every value here may differ per deploy without rebuilding the
// image; nothing here is available at build time.
type RuntimeConfig struct {
	Database      DatabaseConfig
	Production    bool   `env:"PRODUCTION,default=false"`
	SecretKey     string `env:"SECRET_KEY"`
	ListenPort    int    `env:"APP_PORT,default=8000"`
	StaticSource  string `env:"STATIC_SOURCE,default=/home/app/web/static"`
	StaticRoot    string `env:"STATIC_ROOT,default=/home/app/web/staticfiles"`
	MigrationsDir string `env:"MIGRATIONS_DIR,default=/home/app/web/migrations"`
	ServerCommand string `env:"SERVER_CMD,default=gunicorn backend.wsgi:application"`

	// Database readiness probe. The delay is a grace period before the first
	// ping; the bounded retry loop is what actually establishes readiness.
	WaitDelay    time.Duration `env:"DB_WAIT_DELAY,default=0s"`
	WaitInterval time.Duration `env:"DB_WAIT_INTERVAL,default=1s"`
	WaitAttempts int           `env:"DB_WAIT_ATTEMPTS,default=30"`
}

// LoadRuntime reads the runtime environment, honoring an optional .env file.
func LoadRuntime() (*RuntimeConfig, error) {
	_ = godotenv.Load() // absent file is fine, the container env is canonical

	var cfg RuntimeConfig
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode runtime env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the run-time half of the secret contract: images build
// without the secret, but a production container refuses to start without it.
func (c *RuntimeConfig) Validate() error {
	if c.Production && c.SecretKey == "" {
		return errors.New("SECRET_KEY is required when PRODUCTION is set")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.ListenPort)
	}
	return nil
}
