package commands

import (
	"churchsite/database"
	"churchsite/output"
	"churchsite/services"

	"github.com/spf13/cobra"
)

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "Album maintenance",
}

var albumsReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute photo counts and thumbnails from the stored images",
	Long: `Recompute image_count and the thumbnail of every album from its album_images
rows. Album edits keep these in sync; run this after editing images by hand
or restoring a partial backup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close(db)

		fixed, err := services.NewAlbumService(db).ReconcileImageCounts(cmd.Context())
		if err != nil {
			return err
		}
		if fixed == 0 {
			output.Success("All albums are consistent")
			return nil
		}
		output.Warning("Corrected %d album(s)", fixed)
		return nil
	},
}

func init() {
	albumsCmd.AddCommand(albumsReconcileCmd)
	rootCmd.AddCommand(albumsCmd)
}
