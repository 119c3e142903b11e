package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lafiya-uwa/ussdcare/internal/api"
	"github.com/lafiya-uwa/ussdcare/internal/flow"
	"github.com/lafiya-uwa/ussdcare/internal/lockfile"
	"github.com/lafiya-uwa/ussdcare/internal/notify"
	"github.com/lafiya-uwa/ussdcare/internal/refresh"
	"github.com/lafiya-uwa/ussdcare/internal/store"
	"github.com/lafiya-uwa/ussdcare/internal/tips"
	"github.com/lafiya-uwa/ussdcare/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ussdcare state data
	DefaultStateDir = "/var/lib/ussdcare"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "ussdcare.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// A file-based database means single-instance operation: guard the
	// state directory before touching it.
	if *flags.dbDSN != "" && store.DetectDSNType(*flags.dbDSN) == "sqlite3" {
		lock, err := lockfile.AcquireLock(filepath.Dir(*flags.dbDSN))
		if err != nil {
			slog.Error("Failed to acquire state directory lock", "error", err)
			os.Exit(1)
		}
		defer lock.Release()
	}

	// Build the storage backend
	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// SMS delivery: Twilio when configured, no-op otherwise
	notifier := buildNotifier(config)

	// Tip content: OpenAI-backed when a key is present, static otherwise
	tipService := buildTipService(*flags.openaiKey)

	// Wire the dialog engine
	sessions := flow.NewSessionManager(st, config.SessionTTL)
	orchestrator := flow.NewOrchestrator(flow.NewMainMenu(), sessions, st, notifier,
		flow.WithAlertNumber(config.AlertNumber))

	// Weekly refresh job
	var refreshOpts []refresh.Option
	if *flags.refreshCron != "" {
		refreshOpts = append(refreshOpts, refresh.WithSchedule(*flags.refreshCron))
	}
	runner := refresh.NewRunner(st, notifier, tipService, refreshOpts...)
	if err := runner.Start(); err != nil {
		slog.Error("Failed to start weekly refresh", "error", err)
		os.Exit(1)
	}
	defer runner.Stop()

	// API server
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(orchestrator, st, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping ussdcare", "api_addr", *flags.apiAddr, "dsn_set", *flags.dbDSN != "")
	if err := server.Run(ctx); err != nil {
		slog.Error("ussdcare failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ussdcare exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL      string
	StateDir         string
	OpenAIKey        string
	APIAddr          string
	RefreshCron      string
	SessionTTL       time.Duration
	AlertNumber      string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	openaiKey   *string
	apiAddr     *string
	refreshCron *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StateDir:         util.GetEnvOrDefault("USSDCARE_STATE_DIR", DefaultStateDir),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		APIAddr:          os.Getenv("API_ADDR"),
		RefreshCron:      os.Getenv("REFRESH_SCHEDULE"),
		SessionTTL:       util.ParseDurationEnv("SESSION_TTL", flow.DefaultSessionTTL),
		AlertNumber:      os.Getenv("ALERT_PHONE_NUMBER"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM_NUMBER"),
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"USSDCARE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"REFRESH_SCHEDULE", config.RefreshCron,
		"SESSION_TTL", config.SessionTTL,
		"ALERT_PHONE_NUMBER_SET", config.AlertNumber != "",
		"TWILIO_CONFIGURED", config.TwilioAccountSID != "" && config.TwilioAuthToken != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for ussdcare data (overrides $USSDCARE_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		refreshCron: flag.String("refresh-cron", config.RefreshCron, "cron schedule for the weekly refresh (overrides $REFRESH_SCHEDULE)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"refreshCron", *flags.refreshCron)

	// Follow an overridden state directory when the DSN was derived from it
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// buildStore selects and initializes the storage backend from the DSN.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// buildNotifier returns the Twilio SMS service when credentials are present,
// and the no-op sender otherwise.
func buildNotifier(config Config) notify.Service {
	if config.TwilioAccountSID == "" || config.TwilioAuthToken == "" {
		slog.Info("Twilio not configured, SMS delivery disabled")
		return notify.Noop{}
	}
	svc, err := notify.NewTwilioService(notify.Opts{
		AccountSID: config.TwilioAccountSID,
		AuthToken:  config.TwilioAuthToken,
		From:       config.TwilioFrom,
	})
	if err != nil {
		slog.Error("Twilio configuration invalid, SMS delivery disabled", "error", err)
		return notify.Noop{}
	}
	return svc
}

// buildTipService returns the OpenAI-backed tip service when a key is
// configured, and the static table otherwise.
func buildTipService(openaiKey string) *tips.Service {
	if openaiKey == "" {
		slog.Info("OpenAI not configured, using static weekly tips")
		return tips.NewService()
	}
	svc, err := tips.NewServiceWithOpenAI(openaiKey)
	if err != nil {
		slog.Error("OpenAI configuration invalid, using static weekly tips", "error", err)
		return tips.NewService()
	}
	return svc
}
