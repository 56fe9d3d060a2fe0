package cmd

import (
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens/internal/gui"
	"github.com/KaramelBytes/datalens/internal/logging"
)

const appID = "io.github.karamelbytes.datalens"

var guiCmd = &cobra.Command{
	Use:   "gui [file]",
	Short: "Open the desktop window, optionally loading a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return runGUI(path)
	},
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

// runGUI blocks until the main window is closed.
func runGUI(path string) error {
	c := settings()
	a := app.NewWithID(appID)
	wb := newWorkbench()
	logging.L().Info("starting gui", "session_id", wb.ID)

	w := gui.NewMainWindow(&gui.Config{
		App:         a,
		Workbench:   wb,
		Logger:      logging.L(),
		Width:       float32(c.WindowWidth),
		Height:      float32(c.WindowHeight),
		ChartWidth:  float32(c.ChartWidth),
		ChartHeight: float32(c.ChartHeight),
	})
	w.Show()
	if path != "" {
		w.Open(path)
	}
	a.Run()
	return nil
}
