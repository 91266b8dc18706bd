package commands

import (
	"os"

	"churchsite/config"
	"churchsite/database"
	"churchsite/output"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "churchsite",
	Short: "Parish website and admin panel",
	Long: `churchsite serves the parish website: Mass times, events with registration
forms, news, photo albums and parishioner registration, plus the admin panel
staff use to manage them.

Configuration comes from the environment (optionally loaded from an env file)
and an optional churchsite.yaml in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log SQL statements and enable debug output")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// openDatabase is for commands that only need the database.
func openDatabase() (*gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	return database.Open(cfg.DatabaseURL, cfg.Debug)
}
