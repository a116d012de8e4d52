package main

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"resizer/internal/config"
	"resizer/internal/core"
	"resizer/internal/core/engine"
	"resizer/internal/core/strategies"
	"resizer/internal/pkg/httpclient"
	"resizer/internal/pkg/logger"
	"resizer/internal/server"
	"resizer/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resizer server",
	Long:  `Start the resizer HTTP server and begin accepting transform requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()

		store, err := buildStore(cfg)
		if err != nil {
			return err
		}

		resolver, err := engine.NewResolver(cfg.Routing)
		if err != nil {
			return err
		}

		prepared := core.NewPreparedCache(cfg.Cache.Core(), log.Named("prepared"))
		defer prepared.Close()
		headers := core.NewHeaderCache(cfg.Cache.Core(), log.Named("headers"))
		defer headers.Close()

		fetcher := httpclient.New(nil)
		registry := core.NewRegistry()
		strategies.RegisterAll(registry, fetcher, prepared, store, resolver, log)

		dispatcher := core.NewDispatcher(store, resolver, registry, headers, core.HeaderSink{}, cfg.Diagnostics, log)

		// Pick up route policy edits without a restart. Only routing is
		// hot; everything else needs a restart.
		viper.OnConfigChange(func(e fsnotify.Event) {
			fresh, err := config.Load()
			if err != nil {
				log.Warn("config reload failed", zap.Error(err))
				return
			}
			if err := resolver.Reload(fresh.Routing); err != nil {
				log.Warn("route policy reload failed", zap.Error(err))
				return
			}
			log.Info("route policy reloaded", zap.String("file", e.Name))
		})
		viper.WatchConfig()

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := server.New(addr, cfg, dispatcher, log)
		return srv.Start()
	},
}

func buildStore(cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "file", "":
		return storage.NewFileStore(cfg.Storage.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func SetupServeCmd() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Server port")
	serveCmd.Flags().StringP("host", "H", "0.0.0.0", "Server host")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}
