package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"xmppctl/health"
	"xmppctl/internal/config"
)

const shutdownGrace = 5 * time.Second

// sweeper is satisfied by hosts that own their queue, such as host.Local.
type sweeper interface {
	Start(interval time.Duration)
	Stop()
}

func newServeCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the queue janitor and health listener until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if sw, ok := d.Host.(sweeper); ok {
				interval := d.Config.QueueSweepInterval
				if interval <= 0 {
					interval = config.QueueSweepInterval()
				}
				sw.Start(interval)
				defer sw.Stop()
				d.Log.Info().Dur("interval", interval).Msg("queue janitor started")
			}

			srv, ln, err := health.StartFromEnv(d.Host, d.Log)
			if err != nil {
				return fmt.Errorf("health listener: %w", err)
			}
			if srv != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Health listener on %s\n", ln.Addr())
			}

			<-ctx.Done()

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					d.Log.Warn().Err(err).Msg("health listener shutdown")
				}
			}
			d.Log.Info().Msg("serve stopped")
			return nil
		},
	}
}
