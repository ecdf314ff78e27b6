package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Common
	Cache
	Listen          string
	ShutdownTimeout time.Duration
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("listen", ":8080")
		v.SetDefault("shutdown-timeout", 10*time.Second)
	})
	if err != nil {
		return ServeConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return ServeConfig{}, err
	}
	return ServeConfig{
		Common:          common,
		Cache:           loadCache(v),
		Listen:          v.GetString("listen"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
	}, nil
}
