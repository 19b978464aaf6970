// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trialscout CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscout/internal/secrets"
	"github.com/pdiddy/trialscout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets *secrets.Secrets

// rootCmd is the base command for the trialscout CLI.
var rootCmd = &cobra.Command{
	Use:   "trialscout",
	Short: "Find clinical trials through a tool-driven conversation",
	Long: `trialscout searches ClinicalTrials.gov and builds bounded, deduplicated
trials reports from a conversation with a patient.

The converse subcommand exposes the get_trials, set_memory and
generate_report tools to a voice or chat agent over JSON lines. search
queries the registry directly, and report renders a saved export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(verbose)

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			slices.Sort(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trialscout.yaml or ~/.config/trialscout/trialscout.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("base-url", "", "ClinicalTrials.gov API root")
	rootCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout")

	viper.BindPFlag("search.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("search.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	setDefaults(types.DefaultAppConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trialscout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trialscout"))
		}
	}

	viper.SetEnvPrefix("TRIALSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env vars and Unmarshal see it.
func setDefaults(d types.AppConfig) {
	viper.SetDefault("search.base_url", d.Search.BaseURL)
	viper.SetDefault("search.page_size", d.Search.PageSize)
	viper.SetDefault("search.timeout", d.Search.Timeout)
	viper.SetDefault("search.user_agent", d.Search.UserAgent)
	viper.SetDefault("search.max_retries", d.Search.MaxRetries)
	viper.SetDefault("search.api_key", "")
	viper.SetDefault("memory.backend", string(d.Memory.Backend))
	viper.SetDefault("memory.db_path", d.Memory.DBPath)
	viper.SetDefault("report.output_dir", d.Report.OutputDir)
	viper.SetDefault("report.format", string(d.Report.Format))
	viper.SetDefault("report.require_trials", d.Report.RequireTrials)
}

// loadConfig resolves the effective configuration. The ctgov-api-key
// secret fills search.api_key when no other source sets it.
func loadConfig() (types.AppConfig, error) {
	cfg := types.DefaultAppConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = loadedSecrets.Lookup(secrets.CTGovAPIKey, "")
	}
	if cfg.Search.PageSize <= 0 {
		return cfg, fmt.Errorf("search.page_size must be positive, got %d", cfg.Search.PageSize)
	}
	return cfg, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
