package commands

import (
	"churchsite/database"
	"churchsite/output"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return err
		}
		output.Success("Database is up to date (%d tables)", len(database.AllModels()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
