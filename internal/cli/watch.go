package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacentio/kennel/scope"
	"github.com/jacentio/kennel/store"
)

var (
	watchDogID    string
	watchAll      bool
	watchDuration time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dogs|schedules|certificates>",
	Short: "Print live snapshots until interrupted",
	Long: `Subscribe to an owner's dogs, schedules or certificates and print the
full list every time it changes. Stops on interrupt or after --for.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dogs", "schedules", "certificates"},
	GroupID:   "read",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if watchDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, watchDuration)
			defer cancel()
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.startStream(ctx); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch args[0] {
		case "dogs":
			sub, err := a.client.WatchDogs(ctx, scope.DogAll(ownerID))
			if err != nil {
				return err
			}
			return drain(w, sub, printDogs)
		case "schedules":
			sub, err := a.client.WatchSchedules(ctx, scheduleWatchScope(), !watchAll)
			if err != nil {
				return err
			}
			return drain(w, sub, printSchedules)
		case "certificates":
			sub, err := a.client.WatchCertificates(ctx, certificateWatchScope())
			if err != nil {
				return err
			}
			return drain(w, sub, printCertificates)
		}
		return fmt.Errorf("unknown kind %q: want dogs, schedules or certificates", args[0])
	},
}

// drain prints every snapshot of sub until it ends.
func drain[T any](w io.Writer, sub *store.Subscription[T], show func(io.Writer, []T) error) error {
	defer sub.Cancel()
	for snapshot := range sub.Snapshots() {
		if !jsonOutput {
			printHeader(w, time.Now().Format(time.TimeOnly))
		}
		if err := show(w, snapshot); err != nil {
			return err
		}
	}
	return sub.Err()
}

func scheduleWatchScope() scope.Scope {
	if watchDogID != "" {
		return scope.SchedulePerDog(ownerID, watchDogID)
	}
	return scope.ScheduleAll(ownerID)
}

func certificateWatchScope() scope.Scope {
	if watchDogID != "" {
		return scope.CertificatePerDog(ownerID, watchDogID)
	}
	return scope.CertificateAll(ownerID)
}

func init() {
	watchCmd.Flags().StringVar(&watchDogID, "dog", "", "Restrict schedules or certificates to one dog")
	watchCmd.Flags().BoolVar(&watchAll, "all", false, "Include completed schedules")
	watchCmd.Flags().DurationVar(&watchDuration, "for", 0, "Stop after this long (0 waits for an interrupt)")
	rootCmd.AddCommand(watchCmd)
}
