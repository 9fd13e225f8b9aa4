package main

import (
	"fmt"
	"strconv"

	"github.com/ParkWardRR/cartomix/internal/overlay"
	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [track-id]",
	Short: "Show tracks and their latest analysis",
	Long: `Without arguments, list all tracks. With a track ID, show the track's
latest analysis with user cue edits merged in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Bool("verify", false, "run database integrity check first")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		if err := db.CheckIntegrity(); err != nil {
			return err
		}
		util.SuccessLog("Database integrity: ok")
	}

	if len(args) == 0 {
		return listTracks(db)
	}

	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid track ID %q", args[0])
	}

	return showTrack(db, trackID)
}

func listTracks(db *store.Store) error {
	tracks, err := db.GetAllTracks()
	if err != nil {
		return err
	}

	if len(tracks) == 0 {
		util.InfoLog("No tracks in database")
		return nil
	}

	width := util.GetTerminalWidth()
	for _, t := range tracks {
		line := fmt.Sprintf("%5d  %s - %s", t.ID, t.Artist, t.Title)
		if len(line) > width {
			line = line[:width]
		}
		fmt.Println(line)
	}

	fmt.Printf("\n%d tracks\n", len(tracks))
	return nil
}

func showTrack(db *store.Store, trackID int64) error {
	track, err := db.GetTrackByID(trackID)
	if err != nil {
		return err
	}

	fmt.Printf("Track %d\n", track.ID)
	fmt.Printf("  Title:   %s\n", track.Title)
	fmt.Printf("  Artist:  %s\n", track.Artist)
	fmt.Printf("  Album:   %s\n", track.Album)
	fmt.Printf("  Path:    %s\n", track.Path)
	fmt.Printf("  Hash:    %s\n", track.ContentHash)

	analysis, err := db.LatestAnalysis(trackID)
	if err != nil {
		fmt.Println("  No analysis yet")
		return nil
	}

	fmt.Printf("\nAnalysis v%d (%s)\n", analysis.Version, analysis.Status)
	if analysis.Status == store.StatusComplete {
		fmt.Printf("  Duration: %.1fs\n", analysis.DurationSecs)
		fmt.Printf("  BPM:      %.2f (confidence %.2f)\n", analysis.BPM, analysis.BPMConfidence)
		fmt.Printf("  Key:      %s (confidence %.2f)\n", analysis.KeyValue, analysis.KeyConfidence)
		fmt.Printf("  Energy:   %d\n", analysis.Energy)
		fmt.Printf("  Loudness: %.1f LUFS, peak %.1f, range %.1f\n",
			analysis.LoudnessLUFS, analysis.LoudnessTruePeak, analysis.LoudnessRange)
		if analysis.ContextLabel != "" {
			fmt.Printf("  Context:  %s (%.2f)\n", analysis.ContextLabel, analysis.ContextConfidence)
		}
		for _, flag := range analysis.QAFlags {
			util.WarnLog("QA: %s", flag)
		}
	}

	locked, err := db.LockedFields(trackID)
	if err != nil {
		return err
	}
	if len(locked) > 0 {
		fmt.Printf("  Locked:   %v\n", locked)
	}

	// Cues always go through the override merge on display
	cues, err := overlay.MergedCues(db, trackID)
	if err == nil && len(cues) > 0 {
		fmt.Println("\nCues (edits applied)")
		for _, cue := range cues {
			fmt.Printf("  [%d] %-10s %-20s beat %d  %.2fs\n",
				cue.Index, cue.Type, cue.Label, cue.BeatIndex, cue.TimeSecs)
		}
	}

	return nil
}
