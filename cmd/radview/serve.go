package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/radview/internal/imagesource"
	"github.com/example/radview/internal/logging"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/server"
	"github.com/example/radview/internal/upload"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the state, upload and render API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			store, closer, err := persist.Open(cmd.Context(), a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()
			blobs, err := upload.NewDiskStore(a.cfg.Server.BlobDir, a.cfg.Server.BaseURL)
			if err != nil {
				return err
			}

			srv := server.New(server.Options{
				Store:  store,
				Blobs:  blobs,
				Loader: imagesource.NewLoader(logging.Component(a.log, "loader")),
				Theme:  a.theme(),
				Log:    a.log,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			a.log.Info().Msg("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	return cmd
}
