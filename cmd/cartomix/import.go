package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ParkWardRR/cartomix/internal/ingest"
	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import <directory>",
	Short: "Identify audio files and register them as tracks",
	Long: `Walk a directory tree, content-hash every audio file, read its tags,
and register each file as a track. Re-importing identical bytes at a new
path updates the existing track instead of creating a duplicate.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntP("concurrency", "c", 8, "number of hashing workers")
	viper.BindPFlag("concurrency", importCmd.Flags().Lookup("concurrency"))

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	source := args[0]

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	importer := ingest.New(&ingest.Config{
		Store:       db,
		Concurrency: viper.GetInt("concurrency"),
		Logger:      logger,
	})

	start := time.Now()
	result, err := importer.Import(ctx, source)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	util.SuccessLog("Import finished in %v", time.Since(start).Round(time.Millisecond))
	util.InfoLog("  Files found: %d", result.FilesFound)
	util.InfoLog("  Tracks created: %d", result.TracksCreated)
	util.InfoLog("  Tracks updated: %d", result.TracksUpdated)
	if len(result.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(result.Errors))
	}

	return nil
}
