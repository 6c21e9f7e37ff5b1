package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads <configPath>/<configName>.yaml when present and layers
// environment variables on top ("server.port" is read from SERVER_PORT).
// A missing file is not an error; services run on defaults plus env.
func Load(configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}

// Duration reads key as a Go duration string, falling back to def when the
// value is empty or malformed.
func Duration(v *viper.Viper, key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return def
	}
	return d
}

// BindEnvs binds each "key=ENV_NAME" pair, for env names that do not follow
// the automatic dotted mapping.
func BindEnvs(v *viper.Viper, pairs ...string) error {
	for _, p := range pairs {
		key, env, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid env binding %q", p)
		}
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}
