package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"

	"github.com/spf13/cobra"
)

var envFlags struct {
	env   qualifiers.Environment
	apply string
}

var qualifiersCmd = &cobra.Command{
	Use:   "qualifiers",
	Short: "Print the canonical runtime qualifier string of a device",
	Long: `Builds the runtime qualifier string from a device description. Unset
dimensions get the default device values; --apply overlays a qualifier string
on top of the flags.`,
	Args: cobra.NoArgs,
	RunE: runQualifiers,
}

func init() {
	f := qualifiersCmd.Flags()
	f.StringVar(&envFlags.env.Locale, "locale", "", "BCP 47 locale, e.g. en-US or sr-Latn-RS")
	f.StringVar(&envFlags.env.LayoutDirection, "layout-direction", "", "ldltr or ldrtl")
	f.IntVar(&envFlags.env.SmallestWidthDp, "smallest-width", 0, "Smallest width in dp")
	f.IntVar(&envFlags.env.WidthDp, "width", 0, "Screen width in dp")
	f.IntVar(&envFlags.env.HeightDp, "height", 0, "Screen height in dp")
	f.StringVar(&envFlags.env.ScreenSize, "screen-size", "", "small, normal, large or xlarge")
	f.StringVar(&envFlags.env.ScreenLong, "screen-long", "", "long or notlong")
	f.StringVar(&envFlags.env.ScreenRound, "screen-round", "", "round or notround")
	f.StringVar(&envFlags.env.Orientation, "orientation", "", "port, land or square")
	f.StringVar(&envFlags.env.UIModeType, "ui-mode", "", "car, desk, television, appliance, watch or vrheadset")
	f.StringVar(&envFlags.env.Night, "night", "", "night or notnight")
	f.IntVar(&envFlags.env.DensityDpi, "density", 0, "Screen density in dpi")
	f.StringVar(&envFlags.env.Touchscreen, "touchscreen", "", "notouch, stylus or finger")
	f.StringVar(&envFlags.env.Keyboard, "keyboard", "", "nokeys, qwerty or 12key")
	f.StringVar(&envFlags.env.Navigation, "navigation", "", "nonav, dpad, trackball or wheel")
	f.IntVar(&envFlags.env.SDKLevel, "sdk", 0, "Platform version (default: device.sdkLevel)")
	f.StringVar(&envFlags.apply, "apply", "", "Qualifier string applied on top of the flags")
	rootCmd.AddCommand(qualifiersCmd)
}

func runQualifiers(cmd *cobra.Command, _ []string) error {
	env := envFlags.env
	if !cmd.Flags().Changed("sdk") {
		env.SDKLevel = cfg.Device.SDKLevel
	}
	if cfg.Device.Qualifiers != "" {
		if err := env.Apply(cfg.Device.Qualifiers); err != nil {
			return fmt.Errorf("device.qualifiers: %w", err)
		}
	}
	if envFlags.apply != "" {
		if err := env.Apply(envFlags.apply); err != nil {
			return err
		}
	}

	out, err := env.Build()
	if err != nil {
		return err
	}
	logger.Debug().Str("qualifiers", out).Msg("Built runtime qualifiers")
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
