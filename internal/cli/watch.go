package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/connectivity"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/engine"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	StartOnline bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the sync engine, driven by a connectivity signal on stdin",
		Long: `Run the sync engine until interrupted. The platform's connectivity
signal is consumed line by line from stdin:

  online    signal that connectivity returned (debounced auto-sync)
  offline   signal that connectivity was lost
  sync      force a manual pass

Each completed pass is reported as one JSON line on stdout for the
analytics collector.

Example:
  connectivity-feed | lugnsync watch --config lugnsync.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.StartOnline, "start-online", true, "assume connectivity at startup and trigger an initial pass")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Completed passes go to stdout as JSON lines; logs stay on stderr.
	sink := engine.SinkFunc(func(r engine.Report) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		if err := enc.Encode(r); err != nil {
			slog.Error("failed to emit pass report", "error", err)
		}
	})

	a, err := openApp(ctx, opts.RootOptions, engine.WithSink(sink))
	if err != nil {
		return err
	}
	defer a.Close()

	monitor := connectivity.NewMonitor(opts.StartOnline, a.engine.Trigger,
		connectivity.WithDebounce(a.cfg.Sync.Debounce()))
	defer monitor.Close()

	// Log transitions for operators; the subscription is also what the
	// UI layer would use for its pending-count badge.
	sub := monitor.Subscribe()
	defer sub.Cancel()
	go func() {
		for tr := range sub.C {
			slog.Info("connectivity changed", "online", tr.Online)
		}
	}()

	go readSignal(ctx, cmd.InOrStdin(), monitor, a.engine)

	if opts.StartOnline {
		a.engine.Trigger()
	}

	a.engine.Start(ctx)
	return nil
}

// readSignal feeds stdin lines into the monitor until EOF or cancel.
func readSignal(ctx context.Context, in io.Reader, monitor *connectivity.Monitor, e *engine.Engine) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "online":
			monitor.SetOnline(true)
		case "offline":
			monitor.SetOnline(false)
		case "sync":
			e.Trigger()
		case "":
		default:
			fmt.Fprintf(os.Stderr, "unknown signal %q (want online|offline|sync)\n", scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("connectivity signal read failed", "error", err)
	}
}
