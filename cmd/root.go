package cmd

import (
	"context"
	"os"
	"time"

	"github.com/AzielCF/fedisched/config"
	coreDB "github.com/AzielCF/fedisched/core/database"
	domainHealth "github.com/AzielCF/fedisched/domains/health"
	domainPost "github.com/AzielCF/fedisched/domains/post"
	"github.com/AzielCF/fedisched/pkg/crypto"
	"github.com/AzielCF/fedisched/pkg/postworker"
	"github.com/AzielCF/fedisched/platforms"
	"github.com/AzielCF/fedisched/repository"
	"github.com/AzielCF/fedisched/scheduler"
	"github.com/AzielCF/fedisched/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db *gorm.DB

	postUsecase    domainPost.IPostUsecase
	accountUsecase *usecase.AccountService
	healthUsecase  domainHealth.IHealthUsecase

	publishPool   *postworker.Pool
	schedulerLoop *scheduler.Scheduler

	// Flag overrides, applied on top of the environment configuration.
	flagPort      string
	flagDebug     bool
	flagBasicAuth []string
	flagDBDriver  string
)

var rootCmd = &cobra.Command{
	Use:   "fedisched",
	Short: "Scheduled post delivery for Mastodon and Bluesky",
	Long: `Fedisched stores posts with a future publish time and delivers them to
Mastodon and Bluesky when they come due, with automatic retries and
crash-safe delivery state.`,
}

func init() {
	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
	cobra.OnInitialize(initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&flagPort,
		"port", "p",
		"",
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&flagDebug,
		"debug", "d",
		false,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&flagBasicAuth,
		"basic-auth", "b",
		nil,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagDBDriver,
		"db-driver", "",
		"",
		`database driver --db-driver <string> | example: --db-driver="postgres" (default: sqlite)`,
	)
}

func initApp() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("[APP] Invalid configuration: %v", err)
	}

	if flagPort != "" {
		cfg.App.Port = flagPort
	}
	if flagDebug {
		cfg.App.Debug = true
	}
	if len(flagBasicAuth) > 0 {
		cfg.App.BasicAuth = flagBasicAuth
	}
	if flagDBDriver != "" {
		cfg.Database.Driver = flagDBDriver
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if cfg.Security.SecretKey == "" {
		logrus.Fatalln("APP_SECRET_KEY is required to encrypt stored account credentials. Set APP_SECRET_KEY=<random string of at least 16 bytes> and restart.")
	}
	if err := crypto.SetEncryptionKey(cfg.Security.SecretKey); err != nil {
		logrus.Fatalf("[APP] Invalid APP_SECRET_KEY: %v", err)
	}

	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[APP] Failed to connect database: %v", err)
	}

	ctx := context.Background()

	postRepo := repository.NewPostGormRepository(db)
	if err := postRepo.Init(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init post repository: %v", err)
	}
	accountRepo := repository.NewAccountGormRepository(db)
	if err := accountRepo.Init(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init account repository: %v", err)
	}

	postUsecase = usecase.NewPostService(postRepo, accountRepo)
	accountUsecase = usecase.NewAccountService(accountRepo, postRepo)

	registry := platforms.NewRegistry(
		platforms.NewMastodonClient(),
		platforms.NewBlueskyClient(),
	)

	publishPool = postworker.NewPool(cfg.Worker.PoolSize, cfg.Worker.QueueSize)

	dispatcher := scheduler.NewDispatcher(
		postRepo,
		accountUsecase,
		registry,
		scheduler.RetryPolicy{
			MaxAttempts: cfg.Scheduler.MaxAttempts,
			BackoffBase: cfg.Scheduler.BackoffBase,
		},
		cfg.Scheduler.PollInterval,
	)
	schedulerLoop = scheduler.NewScheduler(postRepo, dispatcher, publishPool, cfg.Scheduler.PollInterval)

	healthUsecase = usecase.NewHealthService(db, schedulerLoop, cfg.Scheduler.PollInterval)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown: no new ticks, drain in-flight publishes,
// then close the database.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if schedulerLoop != nil {
		schedulerLoop.Stop()
	}
	if publishPool != nil {
		publishPool.Stop()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
