package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/resbundle/resbundle"

	"github.com/spf13/viper"
)

// Config stores all configuration of the engine and the resq CLI.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Device  DeviceConfig  `mapstructure:"device"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig stores resolution engine settings.
type EngineConfig struct {
	PlatformNamespace string `mapstructure:"platformNamespace"`
	AppIDBase         uint32 `mapstructure:"appIdBase"`
	PlatformIDBase    uint32 `mapstructure:"platformIdBase"`
	LoadConcurrency   int    `mapstructure:"loadConcurrency"`
}

// DeviceConfig describes the default runtime environment used when a caller
// does not supply a qualifier string.
type DeviceConfig struct {
	SDKLevel   int    `mapstructure:"sdkLevel"`
	Qualifiers string `mapstructure:"qualifiers"`
}

// LoggingConfig stores logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from file or environment variables. An empty
// configPath searches the working directory and the user config directory; a
// missing file there is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("engine.platformNamespace", internal.DefaultPlatformNamespace)
	v.SetDefault("engine.appIdBase", internal.DefaultAppIDBase)
	v.SetDefault("engine.platformIdBase", internal.DefaultPlatformIDBase)
	v.SetDefault("engine.loadConcurrency", internal.DefaultLoadConcurrency)
	v.SetDefault("device.sdkLevel", internal.DefaultSDKLevel)
	v.SetDefault("device.qualifiers", "")
	v.SetDefault("logging.level", internal.DefaultLogLevel)

	// engine.platformNamespace becomes RESBUNDLE_ENGINE_PLATFORMNAMESPACE
	v.SetEnvPrefix(internal.DefaultAppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if cfg.Engine.LoadConcurrency <= 0 {
		cfg.Engine.LoadConcurrency = internal.DefaultLoadConcurrency
	}

	return &cfg, nil
}
