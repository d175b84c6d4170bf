package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/radview/internal/fonts"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/render"
	"github.com/example/radview/internal/viewer"
)

func renderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [flags] IMAGE...",
		Short: "Render a study with its saved annotations to a PNG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			study, _ := cmd.Flags().GetString("study")
			out, _ := cmd.Flags().GetString("output")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			if out == "" {
				return fmt.Errorf("--output is required")
			}
			if width < 16 || height < 16 {
				return fmt.Errorf("size %dx%d is too small", width, height)
			}
			if err := persist.ValidStudyID(study); err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closer, err := persist.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()
			stored, err := loadStored(ctx, store, study)
			if err != nil {
				return err
			}

			loader, _, err := a.loader()
			if err != nil {
				return err
			}
			ctl, err := a.newController(viewer.WithSize(width, height))
			if err != nil {
				return err
			}
			specs := imageSpecs(args)
			ctl.Dispatch(viewer.AddImages{Images: specs})
			for _, r := range loadAll(ctx, ctl, loader, specs) {
				if r.Err != nil {
					a.log.Warn().Err(r.Err).Str("id", r.ID).Msg("image failed to load")
				}
			}
			if stored != nil {
				ctl.Dispatch(stored.Restore())
			}

			frame := render.Frame(ctl.Snapshot(), render.Options{Theme: a.theme(), Measurer: fonts.Measurer{}})
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := render.PNG(f, frame); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.log.Info().Str("study", study).Str("file", out).Msg("rendered")
			return nil
		},
	}
	cmd.Flags().String("study", defaultStudy, "study id whose saved state is applied")
	cmd.Flags().StringP("output", "o", "", "PNG file to write")
	cmd.Flags().Int("width", 1024, "output width in pixels")
	cmd.Flags().Int("height", 768, "output height in pixels")
	return cmd
}
