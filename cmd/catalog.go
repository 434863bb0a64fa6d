package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/etude/internal/catalog"
	"github.com/abhisek/etude/internal/output"
)

var (
	catalogFile string
	catalogDump bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and show a session catalog",
	Long: `catalog validates a catalog file and prints its outline. Without --file
it shows the configured catalog (or the built-in one). --dump writes the
catalog as YAML, a starting point for a custom file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return catalogRun()
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogFile, "file", "f", "", "Catalog file to validate")
	catalogCmd.Flags().BoolVar(&catalogDump, "dump", false, "Print the catalog as YAML")
}

func catalogRun() error {
	var (
		cat *catalog.Catalog
		err error
	)
	if catalogFile != "" {
		cat, err = catalog.Load(catalogFile)
	} else {
		cat, err = loadCatalog()
	}
	if err != nil {
		return err
	}

	if catalogDump {
		return cat.Encode(ui.Out)
	}

	if catalogFile != "" {
		ui.Success("%s is valid", catalogFile)
	}

	table := ui.Table([]string{"#", "Phase", "Block", "Kind", "Length", "Cues"})
	for pi, p := range cat.Phases() {
		for bi, b := range p.Blocks {
			phase := ""
			if bi == 0 {
				phase = output.Cyan(p.Title)
			}
			_ = table.Append([]string{
				fmt.Sprintf("%d.%d", pi+1, bi+1),
				phase,
				truncate(b.Primary, 48),
				output.KindColor(string(b.Kind)),
				output.Duration(b.Duration),
				cues(b),
			})
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "\n%d phases, %d blocks, %s total\n",
		cat.Len(), cat.TotalBlocks(), output.Duration(cat.TotalDuration()))
	return nil
}

func cues(b catalog.Block) string {
	var s string
	add := func(on bool, name string) {
		if !on {
			return
		}
		if s != "" {
			s += ","
		}
		s += name
	}
	add(b.UsesMetronome, "metronome")
	add(b.UsesDiagram, "diagram")
	add(b.RequiresCheckin, "check-in")
	return output.Faint(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
