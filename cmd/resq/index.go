package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"

	"github.com/spf13/cobra"
)

var indexFlags struct {
	fixture   string
	namespace string
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the merged id index of a fixture",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexFlags.fixture, "fixture", "f", "", "Fixture file describing the resource trees (required)")
	indexCmd.Flags().StringVarP(&indexFlags.namespace, "namespace", "n", "", "Only print ids of this namespace")
	_ = indexCmd.MarkFlagRequired("fixture")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	tbl, reg, err := loadTable(cmd, indexFlags.fixture)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE")
	tbl.Index().Walk(func(id uint32, name resname.Name, origin string) bool {
		if indexFlags.namespace == "" || name.Namespace == indexFlags.namespace {
			fmt.Fprintf(w, "0x%08x\t%s\t%s\n", id, name, origin)
		}
		return true
	})
	if err := w.Flush(); err != nil {
		return err
	}

	st := reg.Stats()
	logger.Debug().
		Int("trees", st.Trees).
		Int("ids", tbl.Index().Len()).
		Strs("namespaces", tbl.Namespaces()).
		Msg("Printed merged index")
	return nil
}
