package main

import (
	"fmt"
	"strconv"

	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <track-id>",
	Short: "Delete a track and everything that references it",
	Long: `Delete a track. Analyses, embeddings, cached similarity scores, cue
edits, field locks, and training labels referencing it are removed in
the same operation.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid track ID %q", args[0])
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	if err := db.DeleteTrack(trackID); err != nil {
		return err
	}

	logger.LogDelete(trackID)
	util.SuccessLog("Track %d deleted", trackID)
	return nil
}
