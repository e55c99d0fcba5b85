// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docextract CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/pdiddy/docextract/internal/logger"
	"github.com/pdiddy/docextract/internal/secrets"
	"github.com/pdiddy/docextract/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is resolved once per invocation in PersistentPreRunE.
	appConfig types.Config
	appLogger *slog.Logger
)

// rootCmd is the base command for the docextract CLI.
var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract text, links, images, and tables from PDF, DOCX, and PPTX files",
	Long: `docextract reads a PDF, Word, or PowerPoint file from the documents
directory, extracts its text, hyperlinks, embedded images, and tables, writes
them under the output directory, and records the result in a database.

Configuration comes from flags, docextract.yaml, DOCEXTRACT_* environment
variables, and the DB_USER, DB_PASSWORD, DB_HOST, and DB_DATABASE variables
(a .env file in the working directory is loaded first).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		appLogger = logger.Init(cfg.Log, cmd.ErrOrStderr())

		s, err := secrets.Load(cfg.SecretsDir, appLogger)
		if err != nil {
			return err
		}
		s.ApplyTo(&cfg.Database)
		if len(s) > 0 {
			appLogger.Debug("loaded secrets", "dir", cfg.SecretsDir, "count", len(s))
		}

		appConfig = cfg
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./docextract.yaml or ~/.config/docextract/docextract.yaml)")
	pf.String("documents-dir", types.DefaultDocumentsDir, "directory input files are read from")
	pf.String("output-dir", types.DefaultOutputDir, "directory extraction output is written to")
	pf.String("db-driver", types.DriverSQLite, "database backend: sqlite3, postgres, or mysql")
	pf.String("log-level", "info", "log level: debug, info, warn, or error")
	pf.String("log-format", "text", "log format: text or json")

	bindFlag("documents_dir", "documents-dir")
	bindFlag("output_dir", "output-dir")
	bindFlag("database.driver", "db-driver")
	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	// Variables already set in the environment take precedence over .env.
	_ = gotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docextract")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docextract"))
		}
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configureEnv registers defaults and environment bindings for every
// configuration key so that Unmarshal sees values that only come from the
// environment.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("DOCEXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("documents_dir", types.DefaultDocumentsDir)
	v.SetDefault("output_dir", types.DefaultOutputDir)
	v.SetDefault("secrets_dir", types.DefaultSecretsDir)
	v.SetDefault("database.driver", types.DriverSQLite)
	v.SetDefault("database.port", 0)
	v.SetDefault("database.path", "")
	v.SetDefault("database.connect_timeout", types.DefaultConnectTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	legacy := map[string]string{
		"database.user":     "DB_USER",
		"database.password": "DB_PASSWORD",
		"database.host":     "DB_HOST",
		"database.name":     "DB_DATABASE",
	}
	for key, env := range legacy {
		prefixed := "DOCEXTRACT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
}

// loadConfig resolves the effective configuration from v.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.ApplyDefaults()

	switch cfg.Database.Driver {
	case types.DriverSQLite, types.DriverPostgres, types.DriverMySQL:
	default:
		return cfg, fmt.Errorf("unknown database driver %q (want sqlite3, postgres, or mysql)", cfg.Database.Driver)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
