package config

import (
	"fmt"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/viper"
)

var log = logging.Logger("config")

// EnvPrefix prefixes every environment variable, e.g. EDGEAPP_BINARY_SUPPORT.
const EnvPrefix = "EDGEAPP"

type Validatable interface {
	Validate() error
}

type Sentry struct {
	DSN         string `mapstructure:"dsn" validate:"omitempty,url"`
	Environment string `mapstructure:"environment"`
}

func (s Sentry) Validate() error {
	return validateConfig(s)
}

// Edge is the configuration shared by the lambda entry points and the CLI.
type Edge struct {
	BinarySupport bool      `mapstructure:"binary_support"`
	LogLevel      string    `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Sentry        Sentry    `mapstructure:"sentry"`
	Telemetry     Telemetry `mapstructure:"telemetry"`
}

func (e Edge) Validate() error {
	return validateConfig(e)
}

// NewViper returns a viper instance configured with Configure.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	if err := Configure(v, file); err != nil {
		return nil, err
	}
	return v, nil
}

// Configure makes v read EDGEAPP_ prefixed environment variables and sets
// all defaults. A non-empty file is read as well.
func Configure(v *viper.Viper, file string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", file, err)
		}
	}
	return nil
}

// Load decodes and validates T from v.
func Load[T Validatable](v *viper.Viper) (T, error) {
	var out T
	if err := v.Unmarshal(&out); err != nil {
		return out, fmt.Errorf("decoding config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	log.Debugw("loaded config", "file", v.ConfigFileUsed())
	return out, nil
}

// FromEnv loads the Edge config from the environment only.
func FromEnv() (Edge, error) {
	v, err := NewViper("")
	if err != nil {
		return Edge{}, err
	}
	return Load[Edge](v)
}
