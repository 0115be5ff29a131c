package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/septagon/TRACE/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr   string
		webDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recognizer HTTP and WebSocket server",
		Long: `Start the recognizer server. Gestures are streamed to /api/trace over a
WebSocket; /api/classify and /api/examples accept whole takes as JSON.
The vocabulary is saved on POST /api/snapshot and on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.Close()) }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tracer, err := rt.tracer(ctx)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = rt.cfg.Server.Addr
			}
			srv := server.New(server.Config{
				StaticDir: webDir,
				Tracer:    tracer,
				Logger:    rt.logger,
			})
			serveErr := srv.ListenAndServe(ctx, addr)

			// Save even when the listener failed, so nothing learned is lost.
			if err := tracer.Save(context.WithoutCancel(ctx)); err != nil {
				rt.logger.Error("failed to save vocabulary on shutdown", zap.Error(err))
			}
			return serveErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&webDir, "web", "", "directory of static files served at /")
	return cmd
}
