package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"mutual_aid/internal/auth"
	"mutual_aid/internal/config"
	"mutual_aid/internal/logger"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/realtime"
	"mutual_aid/internal/routes"
	"mutual_aid/internal/seed"
	"mutual_aid/internal/store"
)

const shutdownTimeout = 10 * time.Second

// bootstrap loads settings, configures logging and opens a migrated database.
func bootstrap() (*config.Settings, *gorm.DB, error) {
	s, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	logger.Setup(logger.Options{File: s.LogFile, Level: s.LogLevel, Stdout: true})

	db, err := config.InitDB(s)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, nil, err
	}
	return s, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, db, err := bootstrap()
			if err != nil {
				return err
			}

			hub := realtime.NewHub()
			defer hub.Close()

			r := routes.SetupRouter(routes.Deps{
				Settings:  s,
				Store:     store.New(db, s.HistoryLogsEnabled),
				Tokens:    auth.NewTokenIssuer(s.AuthSecret, s.TokenTTL),
				Hasher:    auth.NewPasswordHasher(s.LegacyPlaintextPasswords),
				Hub:       hub,
				AccessLog: logger.Writer(),
			})
			srv := &http.Server{
				Addr:              s.Addr(),
				Handler:           middleware.EnableCORS(s.CORSOrigins, r),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				logrus.WithFields(logrus.Fields{"addr": srv.Addr, "env": s.AppEnv}).Info("server listening")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logrus.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(*cobra.Command, []string) error {
			if _, _, err := bootstrap(); err != nil {
				return err
			}
			logrus.Info("schema up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load emergency contacts from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, db, err := bootstrap()
			if err != nil {
				return err
			}
			if file == "" {
				file = s.SeedFile
			}
			_, err = seed.Contacts(cmd.Context(), store.New(db, false).Emergency, file)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (defaults to SEED_FILE)")
	return cmd
}

func promoteCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			user, err := store.New(db, false).Users.PromoteByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user promoted to admin")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
