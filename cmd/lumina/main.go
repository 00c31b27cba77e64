package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgienger/lumina/internal/analytics"
	"github.com/tgienger/lumina/internal/auth"
	"github.com/tgienger/lumina/internal/config"
	"github.com/tgienger/lumina/internal/db"
	"github.com/tgienger/lumina/internal/emulator"
	"github.com/tgienger/lumina/internal/firebase"
	"github.com/tgienger/lumina/internal/insights"
	"github.com/tgienger/lumina/internal/logging"
	"github.com/tgienger/lumina/internal/tasks"
	"github.com/tgienger/lumina/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	backendOpt string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "lumina",
		Short:         "Lumina - task workspace for the terminal",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runApp,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&backendOpt, "backend", "", "Remote backend: firebase or emulator")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lumina %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(emulatorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies the command line on top of the config file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if backendOpt != "" {
		cfg.Backend = backendOpt
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.LogPath(),
	})
}

// backend is a remote implementation serving both auth and tasks
type backend interface {
	auth.Provider
	tasks.Backend
	Close() error
}

func openBackend(cfg *config.Config, database *db.DB, log *zap.Logger) (backend, error) {
	if cfg.Backend == config.BackendEmulator {
		return emulator.Open(cfg.EmulatorPath(), log)
	}

	poll, err := cfg.PollInterval()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	return firebase.New(firebase.Options{
		APIKey:             cfg.Firebase.APIKey,
		ProjectID:          cfg.Firebase.ProjectID,
		AuthURL:            cfg.Firebase.AuthURL,
		TokenURL:           cfg.Firebase.TokenURL,
		FirestoreURL:       cfg.Firebase.FirestoreURL,
		PollInterval:       poll,
		Timeout:            timeout,
		GoogleClientID:     cfg.Google.ClientID,
		GoogleClientSecret: cfg.Google.ClientSecret,
	}, database.Tokens(), log), nil
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("starting lumina", zap.String("version", version), zap.String("backend", cfg.Backend))

	database, err := db.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer database.Close()

	local := db.NewLocalStore(database)
	if err := local.Load(); err != nil {
		return fmt.Errorf("loading workspaces: %w", err)
	}

	remote, err := openBackend(cfg, database, log)
	if err != nil {
		return fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	defer remote.Close()

	app := ui.NewApp(ui.Deps{
		Auth:     auth.NewGateway(remote, log),
		Tasks:    tasks.NewStore(remote, log),
		Local:    local,
		Settings: database,
		Analyst:  insights.New(cfg.AI.APIKey, cfg.AI.Model, log),
		Logger:   log,
		Filler:   analytics.RandomFiller(),
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error("program exited", zap.Error(err))
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}
