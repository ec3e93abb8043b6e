package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
)

// StatusView is the queue summary rendered by the status command.
type StatusView struct {
	PendingMoods    int    `json:"pendingMoods"`
	PendingMemories int    `json:"pendingMemories"`
	PendingRequests int    `json:"pendingRequests"`
	Pending         int    `json:"pending"`
	SyncedRetained  int    `json:"syncedRetained"`
	LastSyncTime    int64  `json:"lastSyncTime"`
	LastSync        string `json:"lastSync,omitempty"`
}

// NewStatusView summarizes a queue snapshot.
func NewStatusView(st *queue.State) StatusView {
	v := StatusView{
		PendingMoods:    len(st.UnsyncedMoods()),
		PendingMemories: len(st.UnsyncedMemories()),
		PendingRequests: len(st.PendingRequests()),
		Pending:         st.UnsyncedCount(),
		LastSyncTime:    st.LastSyncTime,
	}
	v.SyncedRetained = len(st.Moods) + len(st.Memories) - v.PendingMoods - v.PendingMemories
	if st.LastSyncTime > 0 {
		v.LastSync = time.UnixMilli(st.LastSyncTime).UTC().Format(time.RFC3339)
	}
	return v
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show pending queue counts and the last sync result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, rootOpts)
		},
	}
	return cmd
}

func runStatus(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.store.State(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read queue", err)
	}

	view := NewStatusView(st)
	return writeResult(cmd.OutOrStdout(), opts.Format, view, func(w io.Writer) {
		fmt.Fprintf(w, "Pending: %d (%d moods, %d memories, %d requests)\n",
			view.Pending, view.PendingMoods, view.PendingMemories, view.PendingRequests)
		fmt.Fprintf(w, "Synced entries retained for audit: %d\n", view.SyncedRetained)
		if view.LastSync != "" {
			fmt.Fprintf(w, "Last sync: %s\n", view.LastSync)
		} else {
			fmt.Fprintln(w, "Last sync: never")
		}
	})
}
