package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/recorder"
)

// MoodOptions holds flags for the mood command.
type MoodOptions struct {
	*RootOptions
	Intensity int
	Notes     string
}

// NewMoodCommand creates the mood command.
func NewMoodCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MoodOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mood <mood>",
		Short: "Record a mood log in the offline queue",
		Long: `Record a mood log. The entry is appended to the durable offline queue
and delivered to the API on the next sync pass.

Example:
  lugnsync mood anxious --intensity 7 --notes "before presentation"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMood(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.Intensity, "intensity", "i", 5, "intensity from 1 (mild) to 10 (overwhelming)")
	cmd.Flags().StringVarP(&opts.Notes, "notes", "n", "", "free-form notes")

	return cmd
}

func runMood(cmd *cobra.Command, opts *MoodOptions, mood string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.recorder.RecordMood(ctx, recorder.MoodInput{
		Mood:      mood,
		Intensity: opts.Intensity,
		Notes:     opts.Notes,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "mood not recorded", err)
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, entry, func(w io.Writer) {
		fmt.Fprintf(w, "Recorded mood %q (intensity %d) as entry %d\n", entry.Mood, entry.Intensity, entry.ID)
	})
}

// NewMemoryCommand creates the memory command.
func NewMemoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory <title> <content>",
		Short: "Record a memory entry in the offline queue",
		Long: `Record a memory/journal entry. The entry is appended to the durable
offline queue and delivered to the API on the next sync pass.

Example:
  lugnsync memory "Evening walk" "Walked along the harbour, felt calmer."`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMemory(cmd, rootOpts, args[0], args[1])
		},
	}
	return cmd
}

func runMemory(cmd *cobra.Command, opts *RootOptions, title, content string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.recorder.RecordMemory(ctx, recorder.MemoryInput{Title: title, Content: content})
	if err != nil {
		return WrapExitError(ExitFailure, "memory not recorded", err)
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, entry, func(w io.Writer) {
		fmt.Fprintf(w, "Recorded memory %q as entry %d\n", entry.Title, entry.ID)
	})
}

// RequestOptions holds flags for the request command.
type RequestOptions struct {
	*RootOptions
	Payload string
}

// NewRequestCommand creates the request command.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "request <method> <endpoint>",
		Short: "Queue an arbitrary API call for later delivery",
		Long: `Queue an API call for delivery on the next sync pass. Unlike mood and
memory entries, queued requests get a bounded number of attempts before
being dropped.

Example:
  lugnsync request POST /api/streak --payload '{"days":3}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.Payload, "payload", "p", "", "JSON payload")

	return cmd
}

func runRequest(cmd *cobra.Command, opts *RequestOptions, method, endpoint string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	in := recorder.RequestInput{Method: method, Endpoint: endpoint}
	if opts.Payload != "" {
		in.Payload = json.RawMessage(opts.Payload)
	}

	entry, err := a.recorder.QueueRequest(ctx, in)
	if err != nil {
		return WrapExitError(ExitFailure, "request not queued", err)
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, entry, func(w io.Writer) {
		fmt.Fprintf(w, "Queued %s %s as entry %d\n", entry.Method, entry.Endpoint, entry.ID)
	})
}
