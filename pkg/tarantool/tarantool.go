package tarantool

import (
	"fmt"
	"time"

	"github.com/tarantool/go-tarantool"
)

type Config struct {
	Host     string        `yaml:"TARANTOOL_HOST"     env:"TARANTOOL_HOST"     env-default:"localhost"`
	Port     string        `yaml:"TARANTOOL_PORT"     env:"TARANTOOL_PORT"     env-default:"3301"`
	Username string        `yaml:"TARANTOOL_USER"     env:"TARANTOOL_USER"     env-default:"admin"`
	Password string        `yaml:"TARANTOOL_PASSWORD" env:"TARANTOOL_PASSWORD" env-default:"secret"`
	Timeout  time.Duration `yaml:"TARANTOOL_TIMEOUT"  env:"TARANTOOL_TIMEOUT"  env-default:"3s"`
}

func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func New(config Config) (*tarantool.Connection, error) {
	conn, err := tarantool.Connect(config.Addr(), tarantool.Opts{
		User:    config.Username,
		Pass:    config.Password,
		Timeout: config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed connect to Tarantool: %w", err)
	}
	return conn, nil
}

// ensureSpaceLua creates a space with an unsigned primary key on field 1
// unless it already exists.
const ensureSpaceLua = `
local name = ...
local space = box.schema.space.create(name, {if_not_exists = true})
space:create_index('primary', {parts = {1, 'unsigned'}, if_not_exists = true})
return true
`

// EnsureSpace creates the named space on the server if it is missing.
func EnsureSpace(conn *tarantool.Connection, name string) error {
	if _, err := conn.Eval(ensureSpaceLua, []interface{}{name}); err != nil {
		return fmt.Errorf("failed to ensure space %s: %w", name, err)
	}
	return nil
}
