package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/automember/internal/automember"
	"github.com/KilimcininKorOglu/automember/internal/config"
)

const consoleHelp = `commands:
  search BASE [SCOPE [FILTER [ATTR...]]]   run a search (scope: base, one, sub)
  bind [DN]                                 search as DN, or anonymously
  root                                      search as root
  automember-<directive> ARG                change the overlay configuration
  directives                                print the overlay configuration
  reload                                    re-read the configuration file
  help                                      show this text
  quit                                      leave the console
`

func newConsoleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run searches interactively, with metrics and hot reload",
		Long: `Read commands from standard input, one per line. The configuration file
is watched and re-applied when it changes. When metrics.address is set,
Prometheus metrics are served there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(ctx, cfg, appOptions{logWriter: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.Metrics.Address != "" {
				shutdown := a.serveMetrics(cfg.Metrics)
				defer shutdown()
			}

			c := &console{app: a, out: cmd.OutOrStdout(), root: true}
			if flags.configFile != "" {
				w, err := config.NewConfigWatcher(&config.WatcherConfig{
					FilePath: flags.configFile,
					Logger:   a.logger,
					OnChange: func(_, newCfg *config.Config) {
						if err := a.reload(newCfg); err != nil {
							a.logger.Error("configuration not applied", "error", err.Error())
						}
					},
				})
				if err != nil {
					return err
				}
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
				c.reload = flags.loadConfig
			}

			return c.run(ctx, cmd.InOrStdin())
		},
	}
}

// serveMetrics starts the Prometheus endpoint and returns its shutdown
// function.
func (a *app) serveMetrics(cfg config.MetricsConfig) func() {
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics endpoint failed", "address", cfg.Address, "error", err.Error())
		}
	}()
	a.logger.Info("metrics endpoint listening", "address", cfg.Address, "path", path)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// console executes command lines against an app.
type console struct {
	app    *app
	out    io.Writer
	bindDN string
	root   bool

	// reload re-reads the configuration file; nil without one.
	reload func() (*config.Config, error)
}

// errQuit ends the console loop.
var errQuit = errors.New("quit")

// run reads lines from in until EOF, quit or ctx is done. Command errors
// are printed and do not end the loop.
func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := c.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
		}
	}
}

// exec runs one command line.
func (c *console) exec(ctx context.Context, line string) error {
	name, args, err := automember.SplitDirective(line)
	if err != nil {
		return err
	}

	switch {
	case name == "" || strings.HasPrefix(name, "#"):
		return nil
	case strings.HasPrefix(strings.ToLower(name), "automember-"):
		return c.app.overlay.Configure(line)
	}

	switch strings.ToLower(name) {
	case "search":
		return c.search(ctx, args)
	case "bind":
		c.root = false
		c.bindDN = strings.Join(args, " ")
		return nil
	case "root":
		c.root, c.bindDN = true, ""
		return nil
	case "directives":
		for _, d := range c.app.overlay.Directives() {
			fmt.Fprintln(c.out, d)
		}
		return nil
	case "reload":
		if c.reload == nil {
			return errors.New("no configuration file")
		}
		cfg, err := c.reload()
		if err != nil {
			return err
		}
		if err := c.app.reload(cfg); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "configuration reloaded")
		return nil
	case "help":
		fmt.Fprint(c.out, consoleHelp)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
}

func (c *console) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: search BASE [SCOPE [FILTER [ATTR...]]]")
	}
	p := &searchParams{
		base:   args[0],
		scope:  "sub",
		filter: "(objectClass=*)",
		bindDN: c.bindDN,
		root:   c.root,
	}
	if len(args) > 1 {
		p.scope = args[1]
	}
	if len(args) > 2 {
		p.filter = args[2]
	}
	if len(args) > 3 {
		p.attrs = args[3:]
	}
	_, err := c.app.search(ctx, p, c.out)
	return err
}
