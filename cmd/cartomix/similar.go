package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ParkWardRR/cartomix/internal/similarity"
	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var similarCmd = &cobra.Command{
	Use:   "similar <track-id>",
	Short: "Rank tracks by mix compatibility with a source track",
	Long: `Score every other analyzed track against the source track by embedding
similarity, tempo, Camelot key compatibility, and energy. Scores are
cached per pair and reused until either track is re-analyzed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().IntP("limit", "n", 10, "number of matches to show")
	similarCmd.Flags().Float64("tempo-window", similarity.DefaultTempoWindow, "BPM difference that zeroes the tempo score")
	similarCmd.Flags().IntP("concurrency", "c", 4, "number of scoring workers")
	similarCmd.Flags().Duration("timeout", 30*time.Second, "overall scoring deadline")
	viper.BindPFlag("tempo-window", similarCmd.Flags().Lookup("tempo-window"))

	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
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

	limit, _ := cmd.Flags().GetInt("limit")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	engine := similarity.New(&similarity.Config{
		Store:       db,
		TempoWindow: viper.GetFloat64("tempo-window"),
		Concurrency: concurrency,
		Logger:      logger,
	})

	matches, err := engine.FindSimilar(ctx, trackID, limit)
	if err != nil {
		return fmt.Errorf("similarity search failed: %w", err)
	}

	if len(matches) == 0 {
		util.InfoLog("No analyzed tracks with embeddings to compare against")
		return nil
	}

	for i, m := range matches {
		track, err := db.GetTrackByID(m.TrackID)
		title := fmt.Sprintf("track %d", m.TrackID)
		if err == nil {
			title = fmt.Sprintf("%s - %s", track.Artist, track.Title)
		}
		fmt.Printf("%2d. [%3.0f%%] %s\n       %s\n", i+1, m.Scores.Combined*100, title, m.Explanation)
	}

	return nil
}
