package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	corecfg "github.com/trunkstore-lab/trunkstore/internal/core/config"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
)

type deadLetterOptions struct {
	*rootOptions
	Queue  string
	CallID string
}

func newDeadLetterCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &deadLetterOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deadletter",
		Short: "Inspect, replay or discard parked records",
		Long: `Operate on the dead-letter and quarantine queues of the configured
filesystem store.

Examples:
  trunkstore deadletter list --queue quarantine
  trunkstore deadletter replay 0b6f3c4e-5d1a-4c47-9a39-0f3c1c7a2f10
  trunkstore deadletter discard 0b6f3c4e-5d1a-4c47-9a39-0f3c1c7a2f10`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List parked entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeadLetterList(cmd, opts)
		},
	}
	list.Flags().StringVar(&opts.Queue, "queue", "", "only entries in this queue (deadletter|quarantine)")
	list.Flags().StringVar(&opts.CallID, "call-id", "", "only entries for this call id")

	replay := &cobra.Command{
		Use:   "replay <id>",
		Short: "Resubmit an entry through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeadLetterReplay(cmd, opts, args[0])
		},
	}

	discard := &cobra.Command{
		Use:   "discard <id>",
		Short: "Drop an entry without replaying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeadLetterDiscard(cmd, opts, args[0])
		},
	}

	cmd.AddCommand(list, replay, discard)
	return cmd
}

// openOfflineDeadLetters returns the store for commands that run outside a
// serving process, which only makes sense for the filesystem backend.
func openOfflineDeadLetters(cmd *cobra.Command, opts *deadLetterOptions) (*corecfg.Config, *deadletter.Service, error) {
	cfg, err := loadConfig(cmd, opts.rootOptions)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DeadLetter.Backend != "filesystem" {
		return nil, nil, fmt.Errorf("deadletter commands need the filesystem backend, configured backend is %q", cfg.DeadLetter.Backend)
	}
	repo, err := deadletter.NewFileSystemRepository(cfg.DeadLetter.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, deadletter.NewService(repo), nil
}

func runDeadLetterList(cmd *cobra.Command, opts *deadLetterOptions) error {
	f := deadletter.Filter{Queue: deadletter.Queue(opts.Queue), CallID: opts.CallID}
	if f.Queue != "" && !f.Queue.Valid() {
		return fmt.Errorf("invalid queue %q: must be deadletter or quarantine", opts.Queue)
	}

	_, svc, err := openOfflineDeadLetters(cmd, opts)
	if err != nil {
		return err
	}
	entries, err := svc.List(cmd.Context(), f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return json.NewEncoder(out).Encode(entries)
	}
	return writeEntryTable(out, entries)
}

func writeEntryTable(out io.Writer, entries []*deadletter.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No parked entries.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUEUE\tKIND\tCALL ID\tCREATED\tREASON")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Queue, e.Kind, e.CallID, e.CreatedAt.Format(time.RFC3339), e.Reason)
	}
	return w.Flush()
}

func runDeadLetterReplay(cmd *cobra.Command, opts *deadLetterOptions, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid entry id %q: %w", rawID, err)
	}

	cfg, _, err := openOfflineDeadLetters(cmd, opts)
	if err != nil {
		return err
	}
	st, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		st.close(ctx)
	}()

	res, err := deadletter.NewService(st.parked).Replay(cmd.Context(), id, st.sequencer)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return json.NewEncoder(out).Encode(res)
	}
	if res.Settled {
		fmt.Fprintf(out, "Replayed %s: all records stored.\n", id)
	} else {
		fmt.Fprintf(out, "Replayed %s: some records are pending or were parked again.\n", id)
	}
	return nil
}

func runDeadLetterDiscard(cmd *cobra.Command, opts *deadLetterOptions, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid entry id %q: %w", rawID, err)
	}
	_, svc, err := openOfflineDeadLetters(cmd, opts)
	if err != nil {
		return err
	}
	if err := svc.Discard(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Discarded %s.\n", id)
	return nil
}
