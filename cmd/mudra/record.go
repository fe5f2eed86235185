package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/store"
)

var (
	flagDuration time.Duration
	flagLoop     bool
	flagRealtime bool
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <name>",
		Short: "Capture hand landmarks for later replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			src, name, err := liveSource(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer e.Close()

			settings, _ := cfg.Settings()
			a := app.New(app.Config{
				Settings:   settings,
				FPS:        cfg.Camera.FPS,
				SourceName: name,
				Store:      e.store,
			}, src)

			rec, err := a.Record(ctx, args[0], flagDuration)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %q: %d frames, %v\n", rec.Name, rec.FrameCount, rec.Duration)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&flagDuration, "duration", "d", 10*time.Second, "How long to record")
	return cmd
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <name>",
		Short: "Run a recording through the pipeline as if it were live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}

			// Frames are loaded up front; track opens its own store handle.
			st, err := store.New(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			src, rec, err := app.LoadReplaySource(st, args[0], app.ReplayOptions{Loop: flagLoop, Realtime: flagRealtime})
			st.Close()
			if err != nil {
				return err
			}

			settings, notes := cfg.Settings()
			settings.Mirrored = rec.Mirrored
			return track(cmd.Context(), cfg, src, "replay:"+rec.Name, settings, notes)
		},
	}
	addFrontendFlags(cmd)
	cmd.Flags().BoolVar(&flagLoop, "loop", false, "Restart the recording when it ends")
	cmd.Flags().BoolVar(&flagRealtime, "realtime", true, "Play frames at their recorded pace")
	return cmd
}

func newRecordingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List or delete stored recordings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recordings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(st *store.Store) error {
				recs, err := st.Recordings().List()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tFRAMES\tDURATION\tMIRRORED\tCREATED")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%d\t%v\t%v\t%s\n",
						r.Name, r.FrameCount, r.Duration, r.Mirrored, r.CreatedAt.Local().Format(time.DateTime))
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(st *store.Store) error {
				rec, err := st.Recordings().GetByName(args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no recording named %q", args[0])
				}
				if err != nil {
					return err
				}
				if err := st.Recordings().Delete(rec.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", rec.Name)
				return nil
			})
		},
	})
	return cmd
}

// withStore opens the configured store for a one-shot command.
func withStore(cmd *cobra.Command, fn func(st *store.Store) error) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	e, err := setup(context.Background(), cfg, false)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e.store)
}
