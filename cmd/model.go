package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-cropadvisor/ml"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect the classifier artifact",
}

var modelInspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "Print the model's features, classes and feature importances",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			path = cfg.Model.Path
		}

		forest, err := ml.LoadForest(path)
		if err != nil {
			return err
		}
		return printModel(cmd.OutOrStdout(), path, forest)
	},
}

func init() {
	modelCmd.AddCommand(modelInspectCmd)
}

func printModel(out io.Writer, path string, m *ml.ForestModel) error {
	fmt.Fprintf(out, "Model:    %s\n", path)
	fmt.Fprintf(out, "Version:  %s\n", m.Version)
	fmt.Fprintf(out, "Trees:    %d\n", len(m.Trees))
	fmt.Fprintf(out, "Classes:  %d\n\n", len(m.Classes))

	for i, c := range m.Classes {
		fmt.Fprintf(out, "  %2d  %s\n", i, c)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEATURE\tIMPORTANCE")
	for _, fi := range m.Importance() {
		fmt.Fprintf(w, "%s\t%.3f\n", fi.Feature, fi.Importance)
	}
	return w.Flush()
}
