package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-drift/loom/cmd/loom/internal/demo"
	"github.com/go-drift/loom/pkg/backend/term"
	"github.com/go-drift/loom/pkg/config"
	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/engine"
	loomerrors "github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/rendering"
)

const resizePoll = 250 * time.Millisecond

type runOptions struct {
	fps       int
	debugAddr string
	image     string
	tick      time.Duration
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := runOptions{tick: time.Second}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo app in the terminal",
		Long: `Run the demo app in the terminal until q, esc or ctrl-c is pressed.

With --debug-addr the engine also serves its node tree, component tree and
frame timeline over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g, func(c *config.Config) {
				c.Backend = config.BackendTerm
				if cmd.Flags().Changed("fps") {
					c.FPS = opts.fps
				}
				if cmd.Flags().Changed("debug-addr") {
					c.Debug.Addr = opts.debugAddr
				}
			})
			if err != nil {
				return err
			}
			return runTerminal(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().IntVar(&opts.fps, "fps", 0, "frame rate (default from config, 30)")
	cmd.Flags().StringVar(&opts.debugAddr, "debug-addr", "", "serve debug endpoints on this address (e.g. 127.0.0.1:9230)")
	cmd.Flags().StringVar(&opts.image, "image", "", "raster image shown beside the tiles")
	cmd.Flags().DurationVar(&opts.tick, "tick", opts.tick, "uptime refresh interval (0 disables)")
	return cmd
}

func runTerminal(ctx context.Context, in io.Reader, out io.Writer, cfg config.Config, opts runOptions) error {
	logger := loggerFromContext(ctx)
	loomerrors.SetHandler(&loomerrors.LogHandler{Logger: logger, Verbose: cfg.Verbose})
	defer loomerrors.SetHandler(nil)

	backend := term.New(term.Options{In: in, Out: out, Width: cfg.Width, Height: cfg.Height})
	if err := backend.Open(); err != nil {
		return err
	}
	defer backend.Close()

	ctx, quit := context.WithCancel(ctx)
	defer quit()

	var eng *engine.Engine
	root := core.NewRoot(demo.App, demo.Props{
		Input:    func(h rendering.InputHandler) func() { return eng.CaptureInput(h) },
		Dispatch: func(fn func()) { eng.Dispatch(fn) },
		Quit:     quit,
		Image:    opts.image,
		Tick:     opts.tick,
		Scale:    1,
	})
	eng = engine.New(backend, root, engine.Options{
		FPS:          cfg.FPS,
		Logger:       logger,
		TraceSamples: cfg.Debug.TraceSamples,
	})
	defer eng.Dispose()

	if cfg.Debug.Addr != "" {
		srv, err := engine.StartDebugServer(eng, cfg.Debug.Addr, time.Duration(cfg.Debug.SampleInterval))
		if err != nil {
			return err
		}
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Close(shutdown); err != nil {
				logger.Warn("debug server shutdown", "err", err)
			}
		}()
	}

	// Mount before reading input so the app's key handler is registered.
	if err := eng.Frame(); err != nil {
		return err
	}
	go func() {
		if err := backend.ReadInput(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("input stopped", "err", err)
		}
	}()
	go watchSize(ctx, backend, eng, cfg)

	logger.Debug("running", "fps", cfg.FPS)
	return eng.Run(ctx)
}

// watchSize polls the terminal size and forces a frame when it changes.
func watchSize(ctx context.Context, backend *term.Backend, eng *engine.Engine, cfg config.Config) {
	t := time.NewTicker(resizePoll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if backend.Resize(cfg.Width, cfg.Height) {
				eng.ForceRerender()
			}
		}
	}
}
