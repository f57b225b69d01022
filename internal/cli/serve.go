package cli

import (
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/api"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/signal"
	"github.com/kirychukyurii/webitel-scheduler-console/pkg/httpserver"
)

const serveCommandName = "serve"

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   serveCommandName,
		Short: "Run the web console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log := rt.app.cfg, rt.app.logger

			indicator := signal.NewDeferred(rt.app.service.Pending().Busy, signal.Hysteresis{
				Delay:   cfg.Console.PendingDelay,
				MinShow: cfg.Console.PendingMinShow,
			})
			defer indicator.Stop()

			handler := api.NewHandler(rt.app.service, api.Options{
				BasePath:     cfg.Server.BasePath,
				PollInterval: cfg.Console.PollInterval,
				SessionTTL:   cfg.Console.SessionTTL,
				Indicator:    indicator,
			}, log)

			srv := httpserver.New(
				cfg.Server.Addr,
				handler.Router(),
				cfg.Server.ReadTimeout,
				cfg.Server.WriteTimeout,
				log,
			)

			log.Infow("starting scheduler console",
				"scheduler", cfg.Scheduler.BaseURL,
				"base_path", cfg.Server.BasePath,
				"poll_interval", cfg.Console.PollInterval,
			)

			if err := srv.Run(ctx); err != nil {
				log.Errorw("server error", "error", err.Error())
				return err
			}

			log.Info("shutdown complete")
			return nil
		},
	}
}
