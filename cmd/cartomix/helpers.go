package main

import (
	"fmt"

	"github.com/ParkWardRR/cartomix/internal/report"
	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/spf13/viper"
)

// openStore applies the global log flags and opens the database
func openStore() (*store.Store, error) {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	dbPath := viper.GetString("db")
	util.DebugLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// openEventLogger creates the JSONL audit logger, falling back to a
// no-op logger when the artifacts directory is not writable
func openEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}

	if logger.Path() != "" {
		util.DebugLog("Event log: %s", logger.Path())
	}

	return logger
}
