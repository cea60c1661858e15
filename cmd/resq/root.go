package main

import (
	"fmt"
	"os"

	internal "github.com/ZanzyTHEbar/resbundle/resbundle"
	"github.com/ZanzyTHEbar/resbundle/resbundle/config"
	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string

	cfg    *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:          internal.DefaultAppCMDShortCut,
	Short:        "Resolve qualified resources the way a device would",
	SilenceUsage: true,
	Long: `resq loads resource trees from a fixture file, routes them by namespace
and resolves resource names against a runtime qualifier string such as
"en-rUS-land-xhdpi-v34".`,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./config.yaml or "+internal.DefaultGlobalConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	cfg = loaded

	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger = internal.GetLoggerWithLevel(level)
	return nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtimeFlags are shared by the commands that resolve against a device.
type runtimeFlags struct {
	qualifiers string
	sdk        int
}

func (f *runtimeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.qualifiers, "qualifiers", "q", "", "Runtime qualifier string (default: device.qualifiers from config)")
	cmd.Flags().IntVar(&f.sdk, "sdk", 0, "Platform version appended when the qualifiers carry none (default: device.sdkLevel)")
}

// runtime returns the validated runtime qualifier string.
func (f *runtimeFlags) runtime(cmd *cobra.Command) (string, error) {
	q := cfg.Device.Qualifiers
	if cmd.Flags().Changed("qualifiers") {
		q = f.qualifiers
	}
	sdk := cfg.Device.SDKLevel
	if cmd.Flags().Changed("sdk") {
		sdk = f.sdk
	}
	if sdk > 0 {
		withVersion, err := qualifiers.WithVersion(q, sdk)
		if err != nil {
			return "", err
		}
		q = withVersion
	}
	if _, err := qualifiers.ParseRuntime(q); err != nil {
		return "", err
	}
	return q, nil
}
