package configs

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	BaseURL    string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	StaticDir  string `env:"STATIC_DIR"`

	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"jeeforces"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret         string        `env:"JWT_SECRET"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	VerifyTokenTTL    time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"24h"`
	VerifyRedirectURL string        `env:"VERIFY_REDIRECT_URL" envDefault:"/sign-in?verified=true"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CORSOrigins       []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	SMTPServer   string `env:"SMTP_SERVER"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	NumberOfWorkers int    `env:"NUM_OF_WORKERS" envDefault:"2"`
	RatingStream    string `env:"RATING_STREAM" envDefault:"rating_updates"`
	RatingGroup     string `env:"RATING_GROUP" envDefault:"raters"`

	RatingRetryAfter time.Duration `env:"RATING_RETRY_AFTER" envDefault:"30s"`
}

// IsProduction reports whether the service runs with production logging and cookies.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.NumberOfWorkers < 1 {
		cfg.NumberOfWorkers = 1
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingJWTSecret
		}
		// Sessions do not survive a restart without a configured secret.
		cfg.JWTSecret = uuid.NewString()
		log.Println("JWT_SECRET not set, using a random signing key")
	}
	return &cfg, nil
}
