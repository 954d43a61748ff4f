package phonebook

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds every externalized setting: signing secret, mail credential,
// store DSN, and the public base URL used to build verification links and
// avatar URLs.
type Config struct {
	ServerAddress   string        `env:"SERVER_ADDRESS" envDefault:":3000"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
	SigningKey      string        `env:"JWT_SECRET,required"`
	TokenExpiration time.Duration `env:"TOKEN_EXPIRATION" envDefault:"1h"`
	Issuer          string        `env:"TOKEN_ISSUER" envDefault:"phonebook"`
	DSN             string        `env:"DB_DSN" envDefault:"file:phonebook.db?cache=shared&mode=rwc"`
	ResendAPIKey    string        `env:"RESEND_API_KEY"`
	MailSender      string        `env:"MAIL_SENDER" envDefault:"Phonebook <no-reply@phonebook.local>"`
	AvatarsDir      string        `env:"AVATARS_DIR" envDefault:"public/avatars"`
	TmpDir          string        `env:"TMP_DIR" envDefault:"tmp"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse environment configuration")
	}
	return cfg, nil
}

func (c *Config) GetServerAddress() string { return c.ServerAddress }

func (c *Config) GetBaseURL() string { return c.BaseURL }

func (c *Config) GetSigningKey() string { return c.SigningKey }

func (c *Config) GetTokenExpiration() time.Duration { return c.TokenExpiration }

func (c *Config) GetIssuer() string { return c.Issuer }

func (c *Config) GetDSN() string { return c.DSN }

func (c *Config) GetResendAPIKey() string { return c.ResendAPIKey }

func (c *Config) GetMailSender() string { return c.MailSender }

func (c *Config) GetAvatarsDir() string { return c.AvatarsDir }

func (c *Config) GetTmpDir() string { return c.TmpDir }
