package cli

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cobra"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// DefaultWatchInterval is how often --watch polls the backend.
const DefaultWatchInterval = 10 * time.Second

type watchFlags struct {
	enabled  bool
	interval time.Duration
}

func (w *watchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&w.enabled, "watch", "w", false, "Keep running and redraw whenever the list changes")
	cmd.Flags().DurationVar(&w.interval, "interval", DefaultWatchInterval, "Poll interval for --watch")
}

// watchQuery draws sub's current result, then redraws after every settled
// change until ctx ends. Polling goes through the subscription, so a
// mutation made elsewhere shows up on the next tick and one made by this
// process shows up through tag invalidation. Unchanged results are not
// redrawn.
func watchQuery[R any](ctx context.Context, a *app, sub *apicache.Subscription[R], every time.Duration, fallback string, draw func(R) error) error {
	defer sub.Unsubscribe()

	first := sub.Current()
	if _, err := first.Unwrap(); err != nil {
		return failure(err, fallback)
	}

	if every > 0 {
		go func() {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					sub.Refetch(ctx)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	var last R
	drawn := false
	res := first
	for {
		data, err := res.Unwrap()
		switch {
		case err != nil:
			fmt.Fprintln(a.opts.Err, "Error:", transport.MessageOr(err, fallback))
		case !drawn || !reflect.DeepEqual(data, last):
			a.println("Updated %s", a.opts.Now().Format(time.TimeOnly))
			if err := draw(data); err != nil {
				return err
			}
			last, drawn = data, true
		}

		next, err := sub.Next(ctx)
		if err != nil {
			// interrupted or timed out: a normal way to stop watching
			return nil
		}
		res = next
	}
}
