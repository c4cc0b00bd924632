package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Config wraps viper and provides typed accessors.
type Config struct {
	v *viper.Viper
}

// Load reads a config file and prepares defaults. Plain .ini files are
// parsed through the ini loader; any other extension goes through viper's
// own format detection.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPOTDL")
	v.AutomaticEnv()

	setDefaults(v)

	if strings.EqualFold(filepath.Ext(path), ".ini") {
		if err := loadINI(v, path); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DownloadDir", "downloads")
	v.SetDefault("CacheDir", "./.cache")
	v.SetDefault("Database", "history.db")
	v.SetDefault("HistoryEnabled", true)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "text")
	v.SetDefault("LogDir", "log")
	v.SetDefault("LogSource", false)
	v.SetDefault("GormLogLevel", "warn")
	v.SetDefault("APIBaseURL", "https://spclient.wg.spotify.com")
	v.SetDefault("ImageCDNBaseURL", "https://i.scdn.co/image/")
	v.SetDefault("AccessToken", "")
	v.SetDefault("DownloadTimeout", 60)
	v.SetDefault("MaxCoverEdge", 0)
	v.SetDefault("RequestsPerSecond", 8.0)
	v.SetDefault("RequestBurst", 4)
}

// GetString returns a string value.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns an int value.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 returns a float64 value.
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool returns a bool value.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func loadINI(v *viper.Viper, path string) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return err
	}

	for _, key := range cfg.Section("").Keys() {
		v.Set(key.Name(), key.Value())
	}

	return nil
}
