package commands

import (
	"os"
	"sync"

	"attendance-backend/internal/components/chrono"

	"github.com/spf13/cobra"
)

var (
	watchOpts checkFlags
	watchSpec *string
)

func init() {
	watchOpts = addCheckFlags(watchCmd)
	watchSpec = watchCmd.Flags().String("cron", "@every 6h", "When to re-check, in cron syntax.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--cron <spec>]",
	Short: "Checks attendance now and then again on a schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tel := newTelemetry()
		c, err := newChecker(tel)
		if err != nil {
			return err
		}

		// the first run and a scheduled one may otherwise overlap
		run := serialized(func() {
			err := runCheck(ctx, c, watchOpts, os.Stdout, os.Stderr)
			if err != nil {
				tel.ReportWarning("cli.watch", err)
			}
		})

		cron := chrono.NewStandardCron(tel, nil)
		defer cron.Stop()
		err = cron.Cron(*watchSpec, run)
		if err != nil {
			return err
		}

		run()
		<-ctx.Done()
		return nil
	},
}

// serialized wraps `fn` so that concurrent calls run one after the other.
func serialized(fn func()) func() {
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
}
