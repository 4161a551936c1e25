package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/docbatch/internal/config"
	"github.com/Sternrassler/docbatch/internal/server"
)

func newServeCmd(cfg func() *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve batch fetches over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cfg()
			if addr != "" {
				c.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := openBackend(ctx, c)
			if err != nil {
				return err
			}
			defer b.close()

			opts := []server.Option{}
			if b.pinger != nil {
				opts = append(opts, server.WithPinger(b.pinger))
			}
			return server.New(b.fetcher(c), opts...).
				ListenAndServe(ctx, c.Server.Addr, c.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
