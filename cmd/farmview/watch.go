package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"farmview.ai/internal/catalog"
	"farmview.ai/internal/conn"
	"farmview.ai/internal/history"
	"farmview.ai/internal/journal"
	"farmview.ai/internal/reconcile"
	"farmview.ai/internal/session"
	"farmview.ai/internal/store"
	"farmview.ai/internal/view"
)

func newWatchCmd() *cobra.Command {
	var (
		journalDir   string
		journalIndex string
		showOverlay  bool
		noPrompt     bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the simulation and stream the live view",
		Long: `Connect to the simulation, print field, agent, market and log
changes as they arrive, and read commands from stdin (type "help").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			if journalDir != "" {
				a.cfg.Journal.Dir = journalDir
			}
			if journalIndex != "" {
				a.cfg.Journal.Index = journalIndex
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			cat, err := loadCatalog(a.cfg.Catalog.Path)
			if err != nil {
				return err
			}
			rec, err := openRecorder(a)
			if err != nil {
				return err
			}
			defer func() {
				if err := rec.Close(); err != nil {
					a.logger.Warn("journal close failed", "err", err)
				}
			}()

			eng := reconcile.New(store.New(),
				history.NewBuffers(a.cfg.History.Capacity, a.cfg.History.OverlayCapacity),
				reconcile.Options{Logger: a.logger})
			sink := view.NewTerminalSink(cmd.OutOrStdout())
			sink.ShowOverlay = showOverlay

			ep := a.cfg.Endpoint.Endpoint()
			s := session.New(session.Options{
				Endpoint: ep.String(),
				Dialer:   conn.WSDialer{HandshakeTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second},
				Policy:   a.cfg.Reconnect.Policy(),
				Engine:   eng,
				Catalog:  cat,
				Sink:     sink,
				Recorder: rec,
				Logger:   a.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("watch starting", "endpoint", ep.String(), "journal", a.cfg.Journal.Dir)
			done := make(chan error, 1)
			go func() { done <- s.Run(ctx) }()

			if !noPrompt {
				go prompt(ctx, stop, s, cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			return <-done
		},
	}
	cmd.Flags().StringVar(&journalDir, "journal", "", "Record frames to this directory")
	cmd.Flags().StringVar(&journalIndex, "journal-index", "", "Also index recorded frames into this SQLite file")
	cmd.Flags().BoolVar(&showOverlay, "overlay", false, "Also print the compact overlay log")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Do not read commands from stdin")
	return cmd
}

// prompt reads commands until EOF or quit, then stops the session.
func prompt(ctx context.Context, stop func(), c controller, in io.Reader, out io.Writer) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		err := interpret(ctx, c, sc.Text(), out)
		if errors.Is(err, errQuit) || errors.Is(err, session.ErrStopped) {
			break
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
	stop()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

// openRecorder returns a nil recorder when journaling is off. A nil
// *journal.Recorder is safe to Close.
func openRecorder(a *app) (*journal.Recorder, error) {
	if a.cfg.Journal.Dir == "" {
		if a.cfg.Journal.Index != "" {
			return nil, fmt.Errorf("journal index %s requires a journal directory", a.cfg.Journal.Index)
		}
		return nil, nil
	}
	var ix *journal.Index
	if a.cfg.Journal.Index != "" {
		var err error
		ix, err = journal.OpenIndex(a.cfg.Journal.Index)
		if err != nil {
			return nil, fmt.Errorf("open journal index: %w", err)
		}
	}
	w := journal.NewWriter(a.cfg.Journal.Dir, journal.DefaultPrefix)
	return journal.NewRecorder(a.sessionID, w, ix), nil
}
