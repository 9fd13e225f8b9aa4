package main

import (
	"fmt"
	"strconv"

	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage training labels and classifier model versions",
}

var labelsAddCmd = &cobra.Command{
	Use:   "add <track-id> <label>",
	Short: "Add a labeled region for classifier retraining",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabelsAdd,
}

var labelsListCmd = &cobra.Command{
	Use:   "list <track-id>",
	Short: "List labeled regions on a track",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelsList,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List classifier model versions",
	RunE:  runModels,
}

var modelsActivateCmd = &cobra.Command{
	Use:   "activate <version>",
	Short: "Activate one model version, deactivating the rest",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsActivate,
}

func init() {
	labelsAddCmd.Flags().Float64("start", 0, "region start in seconds")
	labelsAddCmd.Flags().Float64("end", 0, "region end in seconds")
	labelsAddCmd.Flags().Int("start-beat", 0, "region start beat")
	labelsAddCmd.Flags().Int("end-beat", 0, "region end beat")

	labelsCmd.AddCommand(labelsAddCmd)
	labelsCmd.AddCommand(labelsListCmd)
	modelsCmd.AddCommand(modelsActivateCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runLabelsAdd(cmd *cobra.Command, args []string) error {
	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid track ID %q", args[0])
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	start, _ := cmd.Flags().GetFloat64("start")
	end, _ := cmd.Flags().GetFloat64("end")
	startBeat, _ := cmd.Flags().GetInt("start-beat")
	endBeat, _ := cmd.Flags().GetInt("end-beat")

	label := &store.TrainingLabel{
		TrackID:   trackID,
		Label:     args[1],
		StartSecs: start,
		EndSecs:   end,
		StartBeat: startBeat,
		EndBeat:   endBeat,
	}

	if err := db.AddTrainingLabel(label); err != nil {
		return err
	}

	util.SuccessLog("Label %d added to track %d", label.ID, trackID)
	return nil
}

func runLabelsList(cmd *cobra.Command, args []string) error {
	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid track ID %q", args[0])
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	labels, err := db.TrainingLabels(trackID)
	if err != nil {
		return err
	}

	if len(labels) == 0 {
		util.InfoLog("No training labels on track %d", trackID)
		return nil
	}

	for _, l := range labels {
		fmt.Printf("%5d  %-20s %.1fs-%.1fs (beats %d-%d)\n",
			l.ID, l.Label, l.StartSecs, l.EndSecs, l.StartBeat, l.EndBeat)
	}

	return nil
}

func runModels(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	versions, err := db.ListModelVersions()
	if err != nil {
		return err
	}

	if len(versions) == 0 {
		util.InfoLog("No model versions registered")
		return nil
	}

	for _, m := range versions {
		marker := " "
		if m.Active {
			marker = "*"
		}
		fmt.Printf("%s %-16s accuracy %.3f\n", marker, m.Version, m.Accuracy)
	}

	return nil
}

func runModelsActivate(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ActivateModelVersion(args[0]); err != nil {
		return err
	}

	util.SuccessLog("Model version %s activated", args[0])
	return nil
}
