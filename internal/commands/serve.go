package commands

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/appctx"
	"github.com/cfblog/cfblog-web/internal/config"
	"github.com/cfblog/cfblog-web/internal/settings"
	"github.com/cfblog/cfblog-web/internal/web"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		Long: `Serve the blog as server-rendered HTML.

Pages read posts from the API on every request. Site settings and
taxonomy terms are cached in memory; POST /-/cache/refresh drops them.
With --watch-config, editing any config file drops them too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", app.Config.Listen)
			if err != nil {
				return err
			}
			return runServe(ctx, app, ln, watch)
		},
	}

	cmd.Flags().String("listen", "", "Address to listen on (default :8080)")
	cmd.Flags().BoolVar(&watch, "watch-config", false, "Clear caches when a config file changes")

	return cmd
}

// runServe serves on ln until ctx is cancelled.
func runServe(ctx context.Context, app *appctx.App, ln net.Listener, watch bool) error {
	srv, err := web.NewServer(app.Gateway, app.Settings, app.Taxonomy, app.Renderer, web.Options{
		SiteURL: app.Config.SiteURL,
		Locale:  app.Locale,
		Logger:  app.Logger,
	})
	if err != nil {
		return err
	}

	app.Store.OnLoad(func(s settings.SiteSettings) {
		app.Logger.Info("site settings loaded", "title", s.Title, "author", s.Author)
	})
	go app.Store.Load(ctx)

	if watch {
		stopWatch, err := watchConfig(ctx, app, config.Paths())
		if err != nil {
			app.Logger.Warn("config watch disabled", "error", err)
		} else {
			defer stopWatch()
		}
	}

	app.Logger.Debug("using API", "api_url", app.Config.APIURL)
	return srv.Serve(ctx, ln)
}

// watchConfig clears the settings and taxonomy caches whenever one of the
// config files is written, created, removed or renamed. Directories that do
// not exist are skipped. The returned func stops the watcher.
func watchConfig(ctx context.Context, app *appctx.App, layers []config.Layer) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]bool, len(layers))
	dirs := make(map[string]bool, len(layers))
	for _, l := range layers {
		path, err := filepath.Abs(l.Path)
		if err != nil {
			continue
		}
		files[path] = true
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			app.Logger.Debug("not watching config dir", "dir", dir, "error", err)
			continue
		}
		dirs[dir] = true
	}
	if len(dirs) == 0 {
		_ = w.Close()
		return nil, errors.New("no config directory exists")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !files[event.Name] || event.Op == fsnotify.Chmod {
					continue
				}
				app.Logger.Info("config changed, clearing caches", "path", event.Name, "op", event.Op.String())
				app.ClearCaches()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				app.Logger.Warn("config watch error", "error", err)
			}
		}
	}()

	return func() {
		_ = w.Close()
		<-done
	}, nil
}
