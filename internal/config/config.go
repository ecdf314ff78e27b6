package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"puzzleScope/internal/contracts"
)

// EnvPrefix namespaces environment overrides, e.g. PUZZLE_RPC.
const EnvPrefix = "PUZZLE"

// Deployed game contracts.
const (
	DefaultGameToken      = "0x46B0cFbf0786D48D2A97ae628d3E76cB8e1943B9"
	DefaultRewardPool     = "0x905e29f9F5c4298339B3A0a6989119340d9059F3"
	DefaultSpacePuzzleNFT = "0xb19355A7E708883Df704998A3FAd5a506fFE1880"
)

// Common holds settings shared by every command.
type Common struct {
	RPCURL         string
	GameToken      string
	RewardPool     string
	SpacePuzzleNFT string
	LogLevel       string
	Timeout        time.Duration
	WindowBlocks   uint64
	EnrichLimit    int
	// Now pins the reference time in unix seconds; zero means wall clock.
	Now uint64
}

// Cache holds the optional Redis settings.
type Cache struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NameTTL       time.Duration
	BlockTTL      time.Duration
}

// Enabled reports whether a Redis address is configured.
func (c Cache) Enabled() bool {
	return c.RedisAddr != ""
}

// QueryConfig configures the activity, balances and summary commands.
type QueryConfig struct {
	Common
	Cache
	Timeframe string
}

// Addresses validates the configured contract addresses.
func (c Common) Addresses() (contracts.Addresses, error) {
	return contracts.ParseAddresses(c.GameToken, c.RewardPool, c.SpacePuzzleNFT)
}

// NowTime returns the pinned reference time, or the wall clock.
func (c Common) NowTime() func() time.Time {
	if c.Now == 0 {
		return time.Now
	}
	pinned := time.Unix(int64(c.Now), 0)
	return func() time.Time { return pinned }
}

// Validate checks the settings every command needs.
func (c Common) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("rpc url is required (--rpc or %s_RPC)", EnvPrefix)
	}
	if _, err := c.Addresses(); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// LoadQuery merges config file, environment variables, and flags into QueryConfig.
func LoadQuery(cfgFile string, flags *pflag.FlagSet) (QueryConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("timeframe", "week")
	})
	if err != nil {
		return QueryConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return QueryConfig{}, err
	}
	return QueryConfig{
		Common:    common,
		Cache:     loadCache(v),
		Timeframe: v.GetString("timeframe"),
	}, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("game-token", DefaultGameToken)
	v.SetDefault("reward-pool", DefaultRewardPool)
	v.SetDefault("nft", DefaultSpacePuzzleNFT)
	v.SetDefault("log-level", "info")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("window-blocks", uint64(45_500))
	v.SetDefault("enrich-limit", 8)
	v.SetDefault("redis-db", 0)
	v.SetDefault("name-ttl", 24*time.Hour)
	v.SetDefault("block-ttl", 7*24*time.Hour)
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadCommon(v *viper.Viper) (Common, error) {
	now, err := ParseTimestamp(v.GetString("now"))
	if err != nil {
		return Common{}, fmt.Errorf("parse now: %w", err)
	}
	return Common{
		RPCURL:         v.GetString("rpc"),
		GameToken:      v.GetString("game-token"),
		RewardPool:     v.GetString("reward-pool"),
		SpacePuzzleNFT: v.GetString("nft"),
		LogLevel:       v.GetString("log-level"),
		Timeout:        v.GetDuration("timeout"),
		WindowBlocks:   v.GetUint64("window-blocks"),
		EnrichLimit:    v.GetInt("enrich-limit"),
		Now:            now,
	}, nil
}

var nowLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseTimestamp reads the --now pin as unix seconds, RFC3339 or a UTC date.
// Empty means the wall clock and yields 0.
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseUint(input, 10, 64); err == nil {
		return secs, nil
	}
	for _, layout := range nowLayouts {
		if tm, err := time.Parse(layout, input); err == nil {
			if tm.Unix() < 0 {
				return 0, fmt.Errorf("timestamp %q is before the unix epoch", input)
			}
			return uint64(tm.Unix()), nil
		}
	}
	return 0, fmt.Errorf("timestamp %q is not unix seconds, RFC3339 or YYYY-MM-DD", input)
}

func loadCache(v *viper.Viper) Cache {
	return Cache{
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		NameTTL:       v.GetDuration("name-ttl"),
		BlockTTL:      v.GetDuration("block-ttl"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
