package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/internal/server"
	"github.com/goliatone/go-formbuilder/internal/sqlite"
	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/identity"
	"github.com/goliatone/go-formbuilder/pkg/loader"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the form builder over HTTP",
	Long: `Serve starts the HTTP server. Forms live in memory or in SQLite
(storage.driver). Definition files under forms.dir seed forms missing from the
store on start and, with forms.watch, re-import a form whenever its
definition changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := fields.Default()
	service, err := document.NewService(store, document.WithRegistry(registry))
	if err != nil {
		return err
	}

	if dir := cfg.Forms.Dir; dir != "" {
		set, err := loader.LoadDir(dir, registry)
		if err != nil {
			return err
		}
		seedForms(ctx, service, set)
		if cfg.Forms.Watch {
			go func() {
				err := loader.Watch(ctx, dir, registry, loader.DefaultDebounce, func(set *loader.Set) {
					seedForms(ctx, service, set)
				})
				if err != nil {
					logger.Error("form watcher stopped", "error", err)
				}
			}()
		}
	}

	themeCfg, err := resolveTheme(cfg.Theme)
	if err != nil {
		return err
	}
	renderer, err := html.New(html.WithRegistry(registry), html.WithAssetURLPrefix(server.AssetsPath))
	if err != nil {
		return err
	}

	providers := identity.NewRegistry()
	if dt := cfg.Identity.DingTalk; dt.Enabled() {
		provider := identity.NewDingTalk(identity.DingTalkConfig{
			ClientID:     dt.ClientID,
			ClientSecret: dt.ClientSecret,
			BaseURL:      dt.BaseURL,
		})
		if err := providers.Register(provider); err != nil {
			return err
		}
	}

	srv, err := server.New(server.Options{
		Service:       service,
		HTML:          renderer,
		Identity:      providers,
		Theme:         themeCfg,
		Logger:        logger,
		Translator:    cfg.I18n.Translator(),
		DefaultLocale: cfg.I18n.DefaultLocale,
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "storage", cfg.Storage.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(storage config.StorageConfig) (document.Store, func(), error) {
	switch storage.Driver {
	case config.StorageSQLite:
		store, err := sqlite.Open(storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close store", "error", err)
			}
		}, nil
	default:
		return document.NewMemoryStore(), func() {}, nil
	}
}

// seedForms brings loaded definitions into the service. Forms already in the
// store keep their canvas edits unless their definition file changed. A bad
// definition is logged and skipped so the rest still load.
func seedForms(ctx context.Context, service *document.Service, set *loader.Set) {
	for _, form := range set.Forms {
		seeded, written, err := service.Seed(ctx, form, set.Digests[form.ID])
		if err != nil {
			logger.Warn("seed form", "form_id", form.ID, "source", set.Sources[form.ID], "error", err)
			continue
		}
		if written {
			logger.Debug("form seeded", "form_id", seeded.ID, "version", seeded.Version)
		}
	}
}

func resolveTheme(tc config.ThemeConfig) (*theme.RendererConfig, error) {
	manifest := tc.Manifest()
	if manifest == nil {
		return nil, nil
	}
	selector, err := render.NewStaticSelector(manifest)
	if err != nil {
		return nil, err
	}
	resolved, err := render.ResolveTheme(selector, tc.Name, tc.Variant, render.DefaultThemeFallbacks())
	if err != nil {
		return nil, fmt.Errorf("theme: %w", err)
	}
	return resolved, nil
}
