package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacentio/kennel/scope"
	"github.com/jacentio/kennel/store"
)

var completeUndo bool

var completeCmd = &cobra.Command{
	Use:   "complete <dog-id>/<schedule-id>...",
	Short: "Mark schedules complete",
	Long: `Mark schedules of --owner complete in one atomic batch: either every
listed schedule changes or none does. --undo marks them incomplete.`,
	Args:    cobra.MinimumNArgs(1),
	GroupID: "write",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}
		scopes := make([]scope.Scope, 0, len(args))
		for _, arg := range args {
			dogID, scheduleID, ok := strings.Cut(arg, "/")
			if !ok || dogID == "" || scheduleID == "" || strings.Contains(scheduleID, "/") {
				return fmt.Errorf("invalid schedule %q: want <dog-id>/<schedule-id>", arg)
			}
			scopes = append(scopes, scope.ScheduleOne(ownerID, dogID, scheduleID))
		}

		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.client.SetSchedulesComplete(ctx, !completeUndo, scopes...); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]any{"updated": len(scopes), "complete": !completeUndo})
		}
		state := "complete"
		if completeUndo {
			state = "incomplete"
		}
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Marked %d schedule(s) %s", len(scopes), state))
		return nil
	},
}

// recoverViolation turns a scope contract violation into the command's
// error so it is reported instead of crashing the process.
func recoverViolation(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if v, ok := r.(*store.ContractViolation); ok {
		*err = v
		return
	}
	panic(r)
}

func init() {
	completeCmd.Flags().BoolVar(&completeUndo, "undo", false, "Mark the schedules incomplete instead")
	rootCmd.AddCommand(completeCmd)
}
