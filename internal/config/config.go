package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jaam8/election_bot/pkg/tarantool"
	"github.com/joho/godotenv"
)

const (
	AuditNone      = "none"
	AuditTarantool = "tarantool"
	AuditBolt      = "bolt"
)

var ErrUnknownAuditBackend = errors.New("unknown audit backend")

type Config struct {
	RestPort     string           `yaml:"REST_PORT"      env:"REST_PORT"      env-default:"8080"`
	BotToken     string           `yaml:"BOT_TOKEN"      env:"BOT_TOKEN"`
	MmURL        string           `yaml:"MM_URL"         env:"MM_URL"`
	MmWsURL      string           `yaml:"MM_WS_URL"      env:"MM_WS_URL"`
	ChannelID    string           `yaml:"CHANNEL_ID"     env:"CHANNEL_ID"`
	LogLevel     string           `yaml:"LOG_LEVEL"      env:"LOG_LEVEL"      env-default:"debug"`
	AdminID      string           `yaml:"ADMIN_ID"       env:"ADMIN_ID"`
	AuditBackend string           `yaml:"AUDIT_BACKEND"  env:"AUDIT_BACKEND"  env-default:"none"`
	AuditBoltDir string           `yaml:"AUDIT_BOLT_DIR" env:"AUDIT_BOLT_DIR" env-default:"./data"`
	Tarantool    tarantool.Config `yaml:"TARANTOOL"      env:"TARANTOOL"`
}

// New reads the environment, loading .env first when it exists.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.AuditBackend {
	case AuditNone, AuditTarantool, AuditBolt:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAuditBackend, c.AuditBackend)
	}
}
