package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/resbundle/resbundle/fixtures"
	"github.com/ZanzyTHEbar/resbundle/resbundle/matcher"
	"github.com/ZanzyTHEbar/resbundle/resbundle/registry"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"
	"github.com/ZanzyTHEbar/resbundle/resbundle/routing"

	"github.com/spf13/cobra"
)

var errNotFound = errors.New("no value found")

var resolveFlags struct {
	fixture string
	rt      runtimeFlags
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <namespace:type/name | 0xID>...",
	Short: "Resolve resources against a runtime qualifier string",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveFlags.fixture, "fixture", "f", "", "Fixture file describing the resource trees (required)")
	_ = resolveCmd.MarkFlagRequired("fixture")
	resolveFlags.rt.register(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}

// loadTable builds the routing table of a fixture file.
func loadTable(cmd *cobra.Command, path string) (*routing.Table, *registry.Registry, error) {
	doc, err := fixtures.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New(registry.WithEngineConfig(cfg.Engine), registry.WithLogger(logger))
	tbl, err := doc.Build(cmd.Context(), reg)
	if err != nil {
		return nil, nil, err
	}
	return tbl, reg, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	runtime, err := resolveFlags.rt.runtime(cmd)
	if err != nil {
		return err
	}
	tbl, _, err := loadTable(cmd, resolveFlags.fixture)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printInfo(out, "", "runtime "+quoteQualifiers(runtime))

	missing := 0
	for _, arg := range args {
		name, v, ok, err := resolveArg(tbl, arg, runtime)
		if err != nil {
			return err
		}
		if !ok {
			missing++
			printMiss(out, arg, "no value")
			continue
		}
		printOK(out, name.String(), fmt.Sprintf("%v  (%s from %s)", v.Payload, quoteQualifiers(v.Qualifiers), v.Provenance))
	}
	if missing > 0 {
		return fmt.Errorf("%w for %d of %d resources", errNotFound, missing, len(args))
	}
	return nil
}

func resolveArg(tbl *routing.Table, arg, runtime string) (resname.Name, matcher.QualifiedValue, bool, error) {
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		id, err := strconv.ParseUint(arg[2:], 16, 32)
		if err != nil {
			return resname.Name{}, matcher.QualifiedValue{}, false, fmt.Errorf("invalid resource id %q: %w", arg, err)
		}
		return tbl.ResolveID(uint32(id), runtime)
	}

	name, err := resname.Parse(arg, "")
	if err != nil {
		return resname.Name{}, matcher.QualifiedValue{}, false, err
	}
	v, ok, err := tbl.Resolve(name, runtime)
	return name, v, ok, err
}

func quoteQualifiers(q string) string {
	if q == "" {
		return "default"
	}
	return strconv.Quote(q)
}
