package main

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"

	"github.com/spf13/cobra"
)

var flagValidateRuntime bool

var validateCmd = &cobra.Command{
	Use:   "validate <qualifiers>...",
	Short: "Check qualifier strings against the qualifier grammar",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&flagValidateRuntime, "runtime", false, "Validate as runtime qualifiers (rejects anydpi and nodpi)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	parse := qualifiers.Parse
	if flagValidateRuntime {
		parse = qualifiers.ParseRuntime
	}

	out := cmd.OutOrStdout()
	invalid := 0
	for _, arg := range args {
		q, err := parse(arg)
		if err != nil {
			invalid++
			printErr(out, arg, err.Error())
			continue
		}
		dims := make([]string, 0, q.Len())
		for _, tok := range q.Tokens() {
			dims = append(dims, tok.Dimension.String())
		}
		msg := "default"
		if len(dims) > 0 {
			msg = strings.Join(dims, ", ")
		}
		printOK(out, arg, msg)
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d qualifier strings are invalid", invalid, len(args))
	}
	return nil
}
