package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"farmview.ai/internal/config"
	"farmview.ai/internal/history"
	"farmview.ai/internal/journal"
	"farmview.ai/internal/reconcile"
	"farmview.ai/internal/store"
	"farmview.ai/internal/view"
)

type replayResult struct {
	Records  int
	Sessions int
	Engine   *reconcile.Engine
}

func newReplayCmd() *cobra.Command {
	var (
		sessionID string
		verbose   bool
		indexPath string
	)
	cmd := &cobra.Command{
		Use:   "replay <journal-dir>",
		Short: "Re-dispatch a recorded journal into a fresh view and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			out := cmd.OutOrStdout()

			var sink view.Sink
			if verbose {
				sink = view.NewTerminalSink(out)
			}
			res, err := replay(args[0], sessionID, a.cfg.History, sink)
			if err != nil {
				return err
			}
			printSummary(out, res)

			if indexPath != "" {
				return printIndex(cmd.Context(), out, indexPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Only replay this session id")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every view change while replaying")
	cmd.Flags().StringVar(&indexPath, "index", "", "Also print per-tag counts from a journal SQLite index")
	return cmd
}

// replay feeds the inbound frames under dir through a fresh engine. Frames
// are replayed with their recorded receive time as the clock.
func replay(dir, sessionID string, hc config.HistorySpec, sink view.Sink) (replayResult, error) {
	var at time.Time
	eng := reconcile.New(store.New(),
		history.NewBuffers(hc.Capacity, hc.OverlayCapacity),
		reconcile.Options{Now: func() time.Time { return at }})
	var mat *view.Materializer
	if sink != nil {
		mat = view.NewMaterializer(sink)
	}

	res := replayResult{Engine: eng}
	seen := map[string]struct{}{}
	err := journal.ReadDir(dir, journal.DefaultPrefix, func(r journal.Record) error {
		if sessionID != "" && r.Session != sessionID {
			return nil
		}
		if _, ok := seen[r.Session]; !ok {
			seen[r.Session] = struct{}{}
			res.Sessions++
		}
		res.Records++
		if r.Dir != journal.Inbound {
			return nil
		}
		at = r.At
		eng.Dispatch([]byte(r.Frame))
		if mat != nil {
			mat.Sync(eng.Store(), eng.History())
		}
		return nil
	})
	return res, err
}

func printSummary(out io.Writer, res replayResult) {
	st := res.Engine.Stats()
	r := res.Engine.Store()
	fmt.Fprintf(out, "replayed %d records from %d session(s)\n", res.Records, res.Sessions)
	fmt.Fprintf(out, "frames=%d decode_errors=%d unknown=%d\n", st.Frames, st.DecodeErrors, st.Unknown)
	fmt.Fprintf(out, "fields=%d agents=%d counterparties=%d balance=$%.0f\n",
		len(r.Fields()), len(r.Agents()), len(r.Counterparties()), res.Engine.Balance())

	tags := make([]string, 0, len(st.ByTag))
	for tag := range st.ByTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(out, "  %-22s %d\n", tag, st.ByTag[tag])
	}
}

func printIndex(ctx context.Context, out io.Writer, path string) error {
	ix, err := journal.OpenIndexReadOnly(path)
	if err != nil {
		return err
	}
	defer ix.Close()
	sessions, err := ix.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "session %s  %s .. %s  frames=%d commands=%d\n", s.ID, s.FirstAt, s.LastAt, s.Frames, s.Commands)
	}
	counts, err := ix.TagCounts(ctx)
	if err != nil {
		return err
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(out, "  %-22s %d\n", tag, counts[tag])
	}
	return nil
}
