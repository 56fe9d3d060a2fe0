package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datalens/internal/config"
	"github.com/KaramelBytes/datalens/internal/loader"
	"github.com/KaramelBytes/datalens/internal/logging"
	"github.com/KaramelBytes/datalens/internal/plot"
	"github.com/KaramelBytes/datalens/internal/session"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	closeLog = func() error { return nil }

	okColor  = color.New(color.FgGreen)
	errColor = color.New(color.FgRed)
)

var rootCmd = &cobra.Command{
	Use:   "datalens",
	Short: "DataLens: preview, plot and summarize tabular data files",
	Long: `DataLens loads a tabular file (CSV, Excel, JSON, Parquet, HDF5, SAS, Stata,
R, MATLAB, pickle, HTML and more), previews the first rows, renders box,
histogram, line and scatter plots, and prints summary statistics.

Run without a subcommand to open the desktop window.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGUI("")
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		errColor.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datalens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	lc := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = lvl
	} else {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v, using warn\n", err)
	}
	if debug {
		lc.Level = slog.LevelDebug
	}
	lc.Dir = cfg.LogDir
	_ = closeLog()
	_, closer, err := logging.Setup(lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to initialize logging: %v\n", err)
		return
	}
	closeLog = closer
}

// settings returns the loaded configuration or the defaults.
func settings() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

func sessionOptions() session.Options {
	c := settings()
	return session.Options{
		PreviewRows: c.PreviewRows,
		PreviewCols: c.PreviewCols,
		Chart: plot.Options{
			Width:  c.ChartWidth,
			Height: c.ChartHeight,
			Bins:   c.HistogramBins,
		},
	}
}

func newWorkbench() *session.Workbench {
	logger := logging.L()
	return session.New(loader.New(logger), logger, sessionOptions())
}

// openFile starts a workbench on path.
func openFile(path string) (*session.Workbench, error) {
	wb := newWorkbench()
	if err := wb.Upload(path); err != nil {
		return nil, fmt.Errorf("%s: %s", session.Title(err), session.Message(err))
	}
	return wb, nil
}
