package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/klyr-waitlist/pkg/client"
	"github.com/akeren/klyr-waitlist/pkg/constants"
	"github.com/akeren/klyr-waitlist/pkg/counter"
	"github.com/spf13/cobra"
)

func newCountCmd(app *cli) *cobra.Command {
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Show the number of people on the waitlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := client.NewConfigFromEnv()
			cfg.Logger = app.logger
			c, err := client.New(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			signups := counter.New(c.Count, counter.Config{
				Interval: interval,
				Logger:   app.logger,
				OnUpdate: func(n int64) {
					fmt.Fprintln(out, counter.FormatCount(n, true))
				},
			})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if !watch {
				return signups.Refresh(ctx)
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(out, signups.Display())
			if err := signups.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			signups.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling and print every update")
	cmd.Flags().DurationVar(&interval, "interval", constants.DefaultSignupCounterInterval, "polling interval with --watch")
	return cmd
}
