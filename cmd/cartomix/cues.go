package main

import (
	"fmt"
	"strconv"

	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/spf13/cobra"
)

var cuesCmd = &cobra.Command{
	Use:   "cues",
	Short: "Manage user cue edits and field locks",
}

var cuesSetCmd = &cobra.Command{
	Use:   "set <track-id> <cue-index>",
	Short: "Set or update a cue override",
	Long: `Store a user override for one cue slot. Overrides survive re-analysis:
they are merged into the computed cues on every read, so a new analysis
version never erases them.`,
	Args: cobra.ExactArgs(2),
	RunE: runCuesSet,
}

var cuesRemoveCmd = &cobra.Command{
	Use:   "remove <track-id> <cue-index>",
	Short: "Remove a cue override",
	Args:  cobra.ExactArgs(2),
	RunE:  runCuesRemove,
}

var lockCmd = &cobra.Command{
	Use:   "lock <track-id> <field>",
	Short: "Protect a field (bpm, key, energy) from re-analysis overwrite",
	Args:  cobra.ExactArgs(2),
	RunE:  runLock,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <track-id> <field>",
	Short: "Remove a field lock",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnlock,
}

func init() {
	cuesSetCmd.Flags().String("type", "", "cue type (e.g. hotcue, loop)")
	cuesSetCmd.Flags().String("label", "", "cue label")
	cuesSetCmd.Flags().Int("beat", -1, "beat index")

	cuesCmd.AddCommand(cuesSetCmd)
	cuesCmd.AddCommand(cuesRemoveCmd)
	rootCmd.AddCommand(cuesCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
}

func parseTrackAndIndex(args []string) (int64, int, error) {
	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid track ID %q", args[0])
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cue index %q", args[1])
	}
	return trackID, index, nil
}

func runCuesSet(cmd *cobra.Command, args []string) error {
	trackID, index, err := parseTrackAndIndex(args)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	edit := &store.CueEdit{TrackID: trackID, CueIndex: index}
	if cmd.Flags().Changed("type") {
		v, _ := cmd.Flags().GetString("type")
		edit.Type = &v
	}
	if cmd.Flags().Changed("label") {
		v, _ := cmd.Flags().GetString("label")
		edit.Label = &v
	}
	if cmd.Flags().Changed("beat") {
		v, _ := cmd.Flags().GetInt("beat")
		edit.BeatIndex = &v
	}

	if err := db.UpsertCueEdit(edit); err != nil {
		return err
	}

	logger.LogCueEdit(trackID, index)
	util.SuccessLog("Cue %d on track %d updated", index, trackID)
	return nil
}

func runCuesRemove(cmd *cobra.Command, args []string) error {
	trackID, index, err := parseTrackAndIndex(args)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteCueEdit(trackID, index); err != nil {
		return err
	}

	util.SuccessLog("Cue override %d on track %d removed", index, trackID)
	return nil
}

func runLock(cmd *cobra.Command, args []string) error {
	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid track ID %q", args[0])
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.LockField(trackID, args[1]); err != nil {
		return err
	}

	util.SuccessLog("Field %q locked on track %d", args[1], trackID)
	return nil
}

func runUnlock(cmd *cobra.Command, args []string) error {
	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid track ID %q", args[0])
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.UnlockField(trackID, args[1]); err != nil {
		return err
	}

	util.SuccessLog("Field %q unlocked on track %d", args[1], trackID)
	return nil
}
