package main

import (
	"github.com/spf13/cobra"

	"github.com/example/radview/internal/logging"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/ui"
)

func viewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [flags] [IMAGE...]",
		Short: "Open the interactive viewer",
		Long: "Open the interactive viewer on the given files or URLs. Annotations and\n" +
			"view settings are saved to the configured store after every change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			study, _ := cmd.Flags().GetString("study")
			saveDir, _ := cmd.Flags().GetString("save-dir")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			if err := persist.ValidStudyID(study); err != nil {
				return err
			}

			ctx := cmd.Context()
			notifier := notify.New(notify.LoadPreferences(), logging.Component(a.log, "notify"))
			notifier.Configure(a.cfg.Notify)

			store, closer, err := persist.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()
			ctl, err := a.openSession(ctx, store, study, args, notifier)
			if err != nil {
				return err
			}

			loader, blobs, err := a.loader()
			if err != nil {
				return err
			}
			ui.New(ui.Options{
				Title:      "RadView - " + study,
				Width:      width,
				Height:     height,
				Controller: ctl,
				Loader:     loader,
				Uploader:   blobs,
				Theme:      a.theme(),
				Notifier:   notifier,
				SaveDir:    saveDir,
				Log:        logging.Component(a.log, "ui"),
			}).Run()
			return nil
		},
	}
	cmd.Flags().String("study", defaultStudy, "study id to load and save")
	cmd.Flags().String("save-dir", ".", "directory for saved PNG snapshots")
	cmd.Flags().Int("width", 1280, "initial window width")
	cmd.Flags().Int("height", 800, "initial window height")
	return cmd
}
