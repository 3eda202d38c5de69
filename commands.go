package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/restaurant-reservations/config"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/queue"
	"github.com/yeremiapane/restaurant-reservations/router"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

var (
	cfg *config.Config

	tokenSubject string
	tokenTTL     time.Duration

	rootCmd = &cobra.Command{
		Use:           "reservations",
		Short:         "Restaurant reservation service with per-period capacity admission",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the reservation tables and exit",
		RunE:  runMigrate,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token signed with JWT_SECRET",
		RunE:  runToken,
	}
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject, shown in audit logs")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	return database.Migrate(db)
}

func runToken(cmd *cobra.Command, args []string) error {
	token, err := utils.GenerateToken([]byte(cfg.JWTSecret), tokenSubject, utils.RoleAdmin, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locker, closeLocker, err := admissionLocker(ctx)
	if err != nil {
		return err
	}
	defer closeLocker()

	deps := router.Deps{
		DB:        db,
		Config:    cfg,
		Hub:       hub.NewHub(),
		Locker:    locker,
		Publisher: queue.NewPublisher(cfg.RabbitMQURL),
	}
	reservationService, settingsService := router.Services(deps)
	r := router.Routes(deps, reservationService, settingsService)

	monitor := services.NewOccupancyMonitor(reservationService, deps.Hub, cfg.OccupancyInterval)
	monitor.Start()
	defer monitor.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.InfoLogger.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// admissionLocker picks the Redis lock when REDIS_ADDR is set, so several API instances
// share one admission lock, and the in-process lock otherwise.
func admissionLocker(ctx context.Context) (services.AdmissionLocker, func(), error) {
	if cfg.RedisAddr == "" {
		utils.InfoLogger.Println("Admission lock: in-process")
		return services.NewKeyedMutex(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	utils.InfoLogger.Printf("Admission lock: redis at %s", cfg.RedisAddr)
	return services.NewRedisLocker(client, cfg.LockTTL), func() { _ = client.Close() }, nil
}
