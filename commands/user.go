package commands

import (
	"errors"
	"os"

	"churchsite/auth"
	"churchsite/database"
	"churchsite/output"

	"github.com/spf13/cobra"
)

var (
	// User flags
	username string
	email    string
	password string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage staff accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a staff account",
	Long: `Create a staff account that can sign in to the admin panel.

The password can be passed with --password or through CHURCHSITE_PASSWORD so
it does not end up in the shell history.

Examples:
  churchsite user add --username office --email office@parish.org
  churchsite user add --username fr.joseph --email joseph@parish.org --password '...'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := passwordFromFlagOrEnv()
		if err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		user, err := auth.NewService(db).CreateUser(cmd.Context(), username, email, pw)
		if err != nil {
			return err
		}
		output.Success("Created user %s <%s> (id %d)", user.Username, user.Email, user.ID)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Set a new password for a staff account",
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := passwordFromFlagOrEnv()
		if err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := auth.NewService(db).SetPassword(cmd.Context(), email, pw); err != nil {
			return err
		}
		output.Success("Password updated for %s", email)
		output.Muted("Existing sessions stay valid until they expire.")
		return nil
	},
}

func passwordFromFlagOrEnv() (string, error) {
	if password != "" {
		output.Warning("Passing --password leaves it in your shell history")
		return password, nil
	}
	if pw := os.Getenv("CHURCHSITE_PASSWORD"); pw != "" {
		return pw, nil
	}
	return "", errors.New("a password is required: use --password or CHURCHSITE_PASSWORD")
}

func init() {
	userAddCmd.Flags().StringVar(&username, "username", "", "Display name of the account")
	userAddCmd.Flags().StringVar(&email, "email", "", "Email used to sign in")
	userAddCmd.Flags().StringVar(&password, "password", "", "Password (prefer CHURCHSITE_PASSWORD)")
	userAddCmd.MarkFlagRequired("username")
	userAddCmd.MarkFlagRequired("email")

	userPasswdCmd.Flags().StringVar(&email, "email", "", "Email of the account")
	userPasswdCmd.Flags().StringVar(&password, "password", "", "New password (prefer CHURCHSITE_PASSWORD)")
	userPasswdCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd, userPasswdCmd)
	rootCmd.AddCommand(userCmd)
}
