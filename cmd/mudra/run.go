package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/tray"
	"github.com/ayusman/mudra/internal/ui"
)

var (
	flagAddr   string
	flagServer bool
	flagTray   bool
	flagTUI    bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track hands and emit control changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			src, name, err := liveSource(cfg)
			if err != nil {
				return err
			}
			settings, notes := cfg.Settings()
			return track(cmd.Context(), cfg, src, name, settings, notes)
		},
	}
	addFrontendFlags(cmd)
	return cmd
}

func addFrontendFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagAddr, "addr", "127.0.0.1:8765", "Status server listen address")
	f.BoolVar(&flagServer, "server", true, "Serve the status API and page")
	f.BoolVar(&flagTray, "tray", false, "Show a menu-bar icon")
	f.BoolVar(&flagTUI, "tui", false, "Show a live terminal view")
}

// loadRunConfig applies the frontend flags on top of loadConfig. The terminal
// view owns the screen, so logs go to a file unless one is configured.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	if flagTray && flagTUI {
		return config.Config{}, errors.New("--tray and --tui cannot be combined")
	}
	return loadConfig(cmd, func(cfg *config.Config) {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = flagAddr
		}
		if cmd.Flags().Changed("server") {
			cfg.Server.Enabled = flagServer
		}
		if flagTUI && cfg.Logging.File == "" {
			cfg.Logging.File = filepath.Join(cfg.Store.DataDir, "mudra.log")
		}
	})
}

// track runs the app on src until interrupted, with whichever frontends
// were asked for.
func track(parent context.Context, cfg config.Config, src app.FrameSource, sourceName string, settings pipeline.Settings, notes []string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer e.Close()

	for _, n := range notes {
		log.Printf("Config adjusted: %s", n)
	}

	a := app.New(app.Config{
		Settings:   settings,
		FPS:        cfg.Camera.FPS,
		SourceName: sourceName,
		Emitter:    e.emitter,
		Store:      e.store,
		Hooks:      e.hooks,
	}, src)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.Run(ctx)
		cancel()
	}()

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			StaticDir: findWebDir(cfg.Server.WebDir),
			Store:     e.store,
			Tracker:   a,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	switch {
	case flagTUI:
		snaps, unsubscribe := a.Subscribe()
		defer unsubscribe()
		p := tea.NewProgram(ui.New(a, snaps, sourceName), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			cancel()
			<-errCh
			return fmt.Errorf("terminal view: %w", err)
		}
		cancel()

	case flagTray:
		runTray(ctx, cancel, a, cfg)

	default:
		<-ctx.Done()
	}

	return <-errCh
}

// runTray blocks on the menu-bar loop until Quit or ctx ends.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, cfg config.Config) {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)
	t.OnOpenStatus(func() {
		if !cfg.Server.Enabled {
			log.Println("Status server is disabled")
			return
		}
		if err := openBrowser("http://" + cfg.Server.Addr); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})

	snaps, unsubscribe := a.Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case snap := <-snaps:
				t.Update(snap)
			}
		}
	}()

	t.Run()
}
