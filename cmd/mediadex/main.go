package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mediadex/internal/config"
	"mediadex/internal/database"
	"mediadex/internal/logging"
	"mediadex/internal/server"
	"mediadex/internal/sidecar"
	"mediadex/internal/syncer"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configPath string

func defaultConfigPath() string {
	if v := os.Getenv("MEDIADEX_CONFIG"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "mediadex.toml"
	}
	return filepath.Join(home, ".config", "mediadex", "config.toml")
}

// loadConfig reads the config file when present, otherwise builds the config
// from environment variables alone.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config.FromEnv(), nil
		}
		return nil, err
	}
	return config.ReadFromFile(configPath)
}

// openIndex validates the library layout and opens the index database.
// The caller must close the returned database.
func openIndex(ctx context.Context) (*config.Config, *database.Database, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newSyncer(cfg *config.Config, db *database.Database) *syncer.Syncer {
	return syncer.New(db, sidecar.NewStore(cfg.LibraryRoot), syncer.Options{
		ChunkSize:    cfg.ChunkSize,
		StatWorkers:  cfg.StatWorkers,
		ParseWorkers: cfg.ParseWorkers,
		MtimeMapPath: cfg.ResolvedMtimeMapPath(),
	})
}

var rootCmd = &cobra.Command{
	Use:   "mediadex",
	Short: "Sidecar media library index",
	Long:  "mediadex maintains a queryable search index over a sidecar-file media library.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, db, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		sync := newSyncer(cfg, db)
		srv := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      server.New(db, sync, cfg.FolderTreePath).Router(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		}

		// Bring the index up to date in the background before serving stale
		// results forever
		go func() {
			if _, err := sync.RunIncremental(context.Background(), nil); err != nil {
				logging.Error("Startup sync failed: %v", err)
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			logging.Info("Listening on %s", cfg.ListenAddr)
			errCh <- srv.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case sig := <-stop:
			logging.Info("Received %s, shutting down", sig)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
		}
		return nil
	},
}

var syncMode string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the index with the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := syncer.ParseMode(syncMode)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		cfg, db, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		var lastPercent int
		progress, err := newSyncer(cfg, db).Run(ctx, mode, func(p syncer.Progress) {
			pct := int(p.Percent)
			if p.Status == syncer.StatusProcessing && pct >= lastPercent+10 {
				lastPercent = pct
				fmt.Printf("%3d%% (%d/%d)\n", pct, p.ProcessedItems, p.TotalItems)
			}
		})
		if err != nil {
			return err
		}

		fmt.Printf("Sync %s: %d processed, %d skipped, %d errors, %d deleted in %dms\n",
			progress.Status, progress.ProcessedItems, progress.Skipped,
			progress.Errors, progress.Deleted, progress.ElapsedMs)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, db, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.CalculateStats(ctx)
		if err != nil {
			return err
		}
		refresh, err := db.GetLastRefresh(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Items:  %d (%d images, %d videos, %d audio)\n",
			stats.TotalItems, stats.TotalImages, stats.TotalVideos, stats.TotalAudio)
		fmt.Printf("Tags:   %d\n", stats.TotalTags)
		if refresh.IsZero() {
			fmt.Println("Last refresh: never")
		} else {
			fmt.Printf("Last refresh: %s\n", refresh.Format(time.RFC3339))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		if err := config.Init(configPath, cfg); err != nil {
			return err
		}
		fmt.Printf("Configuration initialized at %s\n", configPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", configPath)
		fmt.Printf("Library root:   %s\n", cfg.LibraryRoot)
		fmt.Printf("Database path:  %s\n", cfg.DatabasePath)
		fmt.Printf("Listen address: %s\n", cfg.ListenAddr)
		fmt.Printf("Chunk size:     %d\n", cfg.ChunkSize)
		fmt.Printf("Mtime map:      %s\n", cfg.ResolvedMtimeMapPath())
		if cfg.FolderTreePath != "" {
			fmt.Printf("Folder tree:    %s\n", cfg.FolderTreePath)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")
	syncCmd.Flags().StringVar(&syncMode, "mode", "incremental", "sync mode: incremental, force or full-rebuild")

	configCmd.AddCommand(configInitCmd, configListCmd)
	rootCmd.AddCommand(serveCmd, syncCmd, statsCmd, configCmd)
}
