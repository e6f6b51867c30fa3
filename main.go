package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"jomkira/internal/api"
	"jomkira/internal/config"
	"jomkira/internal/db"
	"jomkira/internal/logger"
	"jomkira/internal/styles"
	"jomkira/internal/ui"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string
	baseURL    string
	logLevel   string
	noHistory  bool
)

var rootCmd = &cobra.Command{
	Use:     "jomkira",
	Short:   "JomKira banking assistant in your terminal",
	Long:    `JomKira lets you check your balance, transfer money and pay bills by chatting with the JomKira assistant.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return run(cfg)
	},
	SilenceUsage: true,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		return listHistory(cmd.OutOrStdout(), cfg, limit)
	},
}

func listHistory(out io.Writer, cfg *config.Config, limit int) error {
	if !cfg.Features.EnableHistory {
		fmt.Fprintln(out, "History is disabled")
		return nil
	}
	path := cfg.HistoryDBPath()
	if !config.FileExists(path) {
		fmt.Fprintln(out, "No conversations yet")
		return nil
	}
	conn, err := db.Open(path)
	if err != nil {
		return err
	}
	defer conn.Close()

	total, items, err := db.GetRecentConversations(conn, limit, 0)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintln(out, "No conversations yet")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(out, "%4d  %-14s  %s\n", item.ID, humanize.Time(time.Unix(item.UpdatedAtUnix, 0)), ui.PromptPreview(item.LastUserPrompt))
	}
	if total > len(items) {
		fmt.Fprintf(out, "... %d more\n", total-len(items))
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jomkira %s\n", rootCmd.Version)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default is the user config dir)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "assistant base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not archive conversations")

	historyCmd.Flags().Int("limit", ui.HistoryPageSize, "number of conversations to list")
	rootCmd.AddCommand(historyCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if noHistory {
		cfg.Features.EnableHistory = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	styles.InitTheme()

	opts := logger.Options{
		Development: cfg.Log.Development,
		Level:       logger.LogLevel(cfg.Log.Level),
	}
	if cfg.Features.EnableFileLogging {
		if err := cfg.EnsureDataDir(); err != nil {
			return err
		}
		opts.FilePath = cfg.LogFilePath(time.Now())
	}
	log, err := logger.New(opts)
	if err != nil {
		return err
	}
	defer logger.Sync(log)

	var (
		conn  *sql.DB
		dbErr error
	)
	if cfg.Features.EnableHistory {
		if dbErr = cfg.EnsureDataDir(); dbErr == nil {
			conn, dbErr = db.Open(cfg.HistoryDBPath())
		}
		if dbErr != nil {
			log.Warn("history unavailable", zap.Error(dbErr))
		}
	}
	if conn != nil {
		defer conn.Close()
	}

	client := api.NewClient(cfg.ChatURL(), cfg.API.Platform, cfg.API.Timeout, log.Named(logger.API))
	log.Info("starting", zap.String("endpoint", cfg.ChatURL()), zap.String("version", version))

	p, _ := ui.NewProgram(ui.Deps{
		Config:    cfg,
		Transport: client,
		DB:        conn,
		DBErr:     dbErr,
		Logger:    log,
	})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
