package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"productos/internal/api"
	"productos/internal/config"
	mydb "productos/internal/db"
	"productos/internal/logging"
)

const (
	driverFlag   = "driver"
	dsnFlag      = "dsn"
	portFlag     = "port"
	logLevelFlag = "log-level"
)

// Empty values mean "use the environment / .env".
var flags = map[string]cobraflags.Flag{
	driverFlag: &cobraflags.StringFlag{
		Name:  driverFlag,
		Value: "",
		Usage: "Database driver (postgres, sqlite); overrides DB_DRIVER",
	},
	dsnFlag: &cobraflags.StringFlag{
		Name:  dsnFlag,
		Value: "",
		Usage: "Database DSN; overrides DB_DSN",
	},
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Value: "",
		Usage: "HTTP port; overrides APP_PORT",
	},
	logLevelFlag: &cobraflags.StringFlag{
		Name:  logLevelFlag,
		Value: "",
		Usage: "Log level (debug, info, warn, error); overrides LOG_LEVEL",
	},
}

func main() {
	root := &cobra.Command{
		Use:           "server",
		Short:         "REST API over the productos table",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCommand,
	}
	cobraflags.RegisterMap(root, flags)

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the productos table and exit",
		RunE:  migrateCommand,
	}
	cobraflags.RegisterMap(migrate, flags)
	root.AddCommand(migrate)

	if err := root.Execute(); err != nil {
		logging.New("info", "json").Fatal().Err(err).Msg("server")
	}
}

// setup loads config, builds the logger and opens the database.
func setup() (config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg := config.Load()
	if err := cfg.Override(
		flags[driverFlag].GetString(),
		flags[dsnFlag].GetString(),
		flags[portFlag].GetString(),
		flags[logLevelFlag].GetString(),
	); err != nil {
		return cfg, zerolog.Nop(), nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := mydb.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return cfg, log, nil, err
	}
	return cfg, log, db, nil
}

func migrateCommand(_ *cobra.Command, _ []string) error {
	_, log, db, err := setup()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := mydb.Migrate(db); err != nil {
		return err
	}
	log.Info().Msg("productos table migrated")
	return nil
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if cfg.AutoMigrate {
		if err := mydb.Migrate(db); err != nil {
			return err
		}
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(db, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
