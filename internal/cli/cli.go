// Package cli wires the serve and migrate commands.
package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"github.com/viant/agentspace"
	"github.com/viant/agentspace/internal/config"
	"github.com/viant/agentspace/internal/gateway"
	"github.com/viant/agentspace/internal/log"
	"github.com/viant/agentspace/store/pg"
)

var errMissingDSN = errors.New("no database DSN configured, set db.dsn or DATABASE_URL")

// NewRootCommand builds the agentspace command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agentspace",
		Short: "Workflow automation core for agent teams",
	}
	rootCmd.PersistentFlags().String("config", "", "path to config file")
	rootCmd.AddCommand(newServeCommand(), newMigrateCommand())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway and workflow engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.GetLogger()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			retryDelay, approvalTTL, err := cfg.EngineConfig()
			if err != nil {
				return err
			}

			serviceConfig := agentspace.DefaultConfig()
			if cfg.Engine.Workers > 0 {
				serviceConfig.Engine.WorkerCount = cfg.Engine.Workers
			}
			if retryDelay > 0 {
				serviceConfig.Engine.RetryDelay = retryDelay
			}
			serviceConfig.Engine.ApprovalTTL = approvalTTL
			if cfg.Engine.RecentExecutions > 0 {
				serviceConfig.Engine.RecentExecutions = cfg.Engine.RecentExecutions
			}

			options := []agentspace.Option{agentspace.WithConfig(serviceConfig)}
			if cfg.DB.DSN != "" {
				store, err := pg.New(cfg.DB.DSN)
				if err != nil {
					return err
				}
				defer store.Close()
				options = append(options, agentspace.WithStore(store))
				logger.Info("using postgres stores")
			} else {
				logger.Warn("no db.dsn configured, running with in-memory stores")
			}
			if cfg.Tracing.Enable {
				options = append(options, agentspace.WithTracing("agentspace", "dev", cfg.Tracing.OutputFile))
			}

			srv, err := agentspace.New(options...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt := srv.Runtime()
			if err := rt.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = rt.Shutdown(context.Background()) }()

			e := gateway.NewServer(rt).Router()
			go func() {
				logger.Infof("listening on %s", cfg.HTTP.Addr)
				if err := e.Start(cfg.HTTP.Addr); err != nil && err != http.ErrServerClosed {
					logger.Errorf("server: %v", err)
					stop()
				}
			}()

			<-ctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dsn := cfg.DB.DSN
			if dsn == "" {
				dsn = os.Getenv("DATABASE_URL")
			}
			if dsn == "" {
				return errMissingDSN
			}
			source, err := cmd.Flags().GetString("source")
			if err != nil {
				return err
			}
			m, err := migrate.New(source, dsn)
			if err != nil {
				return err
			}
			down, err := cmd.Flags().GetBool("down")
			if err != nil {
				return err
			}
			if down {
				err = m.Down()
			} else {
				err = m.Up()
			}
			if err != nil && err != migrate.ErrNoChange {
				return err
			}
			log.GetLogger().Info("migrations applied")
			return nil
		},
	}
	cmd.Flags().String("source", "file://migrations", "migration source URL")
	cmd.Flags().Bool("down", false, "roll migrations back instead of applying them")
	return cmd
}
