// Package main provides the dommyhoops server CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dparolin/dommyhoops/assistant"
	"github.com/dparolin/dommyhoops/cache"
	"github.com/dparolin/dommyhoops/config"
	"github.com/dparolin/dommyhoops/duck"
	"github.com/dparolin/dommyhoops/internal/log"
	"github.com/dparolin/dommyhoops/llm"
	"github.com/dparolin/dommyhoops/query"
	"github.com/dparolin/dommyhoops/server"
	"github.com/dparolin/dommyhoops/storage"
	"github.com/dparolin/dommyhoops/tools"
)

// Version is stamped by the build.
var Version = "dev"

var devLogging bool

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "dommyhoops",
		Short: "College basketball statistics API with a tool-calling assistant",
		Long: `dommyhoops serves a read-only college basketball dataset (DuckDB) over HTTP,
both as direct query endpoints and through a natural-language assistant that
answers questions by calling the same query tools.`,
	}
	rootCmd.PersistentFlags().BoolVar(&devLogging, "dev", false, "human-readable development logging")

	rootCmd.AddCommand(serveCmd(), askCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.Init(devLogging); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer log.Sync()

			settings, err := config.New()
			if err != nil {
				return err
			}

			deps, err := buildDeps(settings)
			if err != nil {
				return err
			}
			defer deps.close()

			httpServer := &http.Server{
				Addr: settings.HTTP.Addr,
				Handler: server.New(server.Config{
					Registry:       deps.registry,
					Assistant:      deps.assistant,
					Cache:          deps.cache,
					Sessions:       deps.sessions,
					Logger:         log.Logger(),
					RequestTimeout: settings.HTTP.RequestTimeout,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening",
					zap.String("addr", settings.HTTP.Addr),
					zap.String("db", settings.Data.DuckDBPath),
					zap.String("provider", deps.provider.Name()),
					zap.String("model", deps.provider.Model()))
				errCh <- httpServer.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-stop:
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown failed: %w", err)
				}
			}
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant one question from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.New()
			if err != nil {
				return err
			}

			deps, err := buildDeps(settings)
			if err != nil {
				return err
			}
			defer deps.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), settings.HTTP.RequestTimeout)
			defer cancel()

			outcome, err := deps.assistant.Answer(ctx, []assistant.Turn{
				{Role: llm.RoleUser, Content: args[0]},
			})
			if err != nil {
				return err
			}

			fmt.Println(outcome.Message.Content)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("dommyhoops", Version)
		},
	}
}

// deps holds the wired component graph.
type deps struct {
	provider  llm.Provider
	cache     *cache.Cache
	registry  *tools.Registry
	assistant *assistant.Assistant
	sessions  storage.SessionStore
	closers   []func() error
}

func buildDeps(settings config.Settings) (*deps, error) {
	db, err := duck.Open(duck.Options{
		Path:        settings.Data.DuckDBPath,
		MaxConns:    settings.Data.MaxConns,
		Threads:     settings.Data.Threads,
		MemoryLimit: settings.Data.MemoryLimit,
	})
	if err != nil {
		return nil, err
	}

	d := &deps{closers: []func() error{db.Close}}

	executor := query.NewExecutor(db)
	d.cache = cache.New(executor, settings.Cache.Capacity)

	d.registry, err = tools.NewCatalog(d.cache)
	if err != nil {
		d.close()
		return nil, err
	}

	temperature := float32(settings.LLM.Temperature)
	d.provider, err = llm.New(llm.Config{
		Provider:    settings.LLM.Provider,
		Model:       settings.LLM.Model,
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		d.close()
		return nil, err
	}

	d.assistant = assistant.New(d.provider, d.registry,
		assistant.WithMaxRounds(settings.Assistant.MaxRounds),
		assistant.WithLogger(log.Logger()))

	if settings.Data.SessionDBPath != "" {
		store, err := storage.OpenSqlite(settings.Data.SessionDBPath)
		if err != nil {
			d.close()
			return nil, err
		}
		d.sessions = store
		d.closers = append(d.closers, store.Close)
	} else {
		d.sessions = storage.NewInMemoryStore()
	}

	return d, nil
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}
