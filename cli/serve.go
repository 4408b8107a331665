package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"radgrid/stream"
)

func serveCmd() *cobra.Command {
	var (
		solver solverFlags
		addr   string
		every  int
	)

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve model runs over a websocket at /ws",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := solver.settings(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				s.Server.Addr = addr
			}
			if cmd.Flags().Changed("every") {
				s.Server.FrameEvery = every
			}

			opts, err := s.Solver.Options()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return stream.NewServer(s.Server, opts...).ListenAndServe(ctx)
		},
	}

	c.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	c.Flags().IntVar(&every, "every", 1, "default steps between streamed frames")
	solver.register(c)
	return c
}
