package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for config lookup and the env prefix
	DefaultAppName          = "resbundle"
	DefaultAppCMDShortCut   = "resq"
	DefaultConfigPath       = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultGlobalConfigFile = filepath.Join(DefaultConfigPath, "config.yaml")

	// Resource namespace defaults
	DefaultPlatformNamespace = "android"
	DefaultSDKLevel          = 34

	// Id spaces. Application and library ids live in the 0x7f package block,
	// platform ids in the 0x01 block.
	DefaultAppIDBase      uint32 = 0x7f010000
	DefaultPlatformIDBase uint32 = 0x01010000
	// Each non-platform source opened by a registry gets its own block of
	// this many ids, starting at the app id base.
	DefaultIDBlockSize uint32 = 0x00010000

	// Loader settings
	DefaultLoadConcurrency = 8
	DefaultLogLevel        = "info"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// GetLoggerWithLevel returns GetLogger filtered to the named level. Unknown
// level names fall back to info.
func GetLoggerWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return GetLogger().Level(lvl)
}
