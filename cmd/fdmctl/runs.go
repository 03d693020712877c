package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fdmctl/internal/config"
	"github.com/san-kum/fdmctl/internal/storage"
	"github.com/spf13/cobra"
)

var (
	plotColumns []string
	exportOut   string
)

func runsDir() string {
	if dataDir != "" {
		return dataDir
	}
	return config.DefaultRunsDir
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded runs",
		RunE:  listRuns,
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "runs directory")
	return cmd
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded properties",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "runs directory")
	cmd.Flags().StringSliceVar(&plotColumns, "props", nil, "properties to plot (default: all)")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "runs directory")
	cmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")
	return cmd
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(runsDir())
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAIRCRAFT\tTIME\tSIM TIME\tDT\tINTEG\tPRESET\tSAMPLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%d\n",
			run.ID,
			run.Aircraft,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.SimTime,
			run.Dt,
			run.Integrator,
			run.Preset,
			run.Samples,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(runsDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(series.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("aircraft: %s\n", meta.Aircraft)
	fmt.Printf("samples: %d\n\n", len(series.Rows))

	columns := plotColumns
	if len(columns) == 0 {
		columns = series.Columns
	}
	for _, name := range columns {
		data, err := series.Column(name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(runsDir())
	if exportOut == "" {
		return st.ExportJSON(args[0], os.Stdout)
	}
	if err := st.ExportJSONFile(args[0], exportOut); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", exportOut)
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list initial condition presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLAT\tLON\tH AGL\tPSI\tU")
			for _, name := range config.ListPresets() {
				p, _ := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.0fft\t%.0fdeg\t%.0ffps\n",
					name, p.LatitudeDeg, p.LongitudeDeg, p.AltitudeAGLFt, p.PsiDeg, p.UFps)
			}
			return w.Flush()
		},
	}
}
