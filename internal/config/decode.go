package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig configures the offline decode of an archive file.
type DecodeConfig struct {
	In       string
	Out      string
	Errors   string
	LogLevel string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("in", "./data/game_logs.jsonl")
		v.SetDefault("out", "./data/activity.jsonl")
		v.SetDefault("errors", "./data/decode_errors.jsonl")
	})
	if err != nil {
		return DecodeConfig{}, err
	}
	cfg := DecodeConfig{
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Errors:   v.GetString("errors"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.In == "" || cfg.Out == "" || cfg.Errors == "" {
		return DecodeConfig{}, fmt.Errorf("in, out and errors paths are required")
	}
	return cfg, nil
}
