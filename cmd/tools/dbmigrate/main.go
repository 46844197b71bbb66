// cmd/tools/dbmigrate/main.go
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/db"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		dbPath  = flag.String("db", "", "Path to SQLite database")
		command = flag.String("command", "", "Command to run (up, down, version)")
	)
	flag.Parse()

	// Validate flags
	if *dbPath == "" || *command == "" {
		log.Error().Msg("All flags are required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	absDB, err := filepath.Abs(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database path")
	}

	// Create database directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	// Migrations are embedded in the db package.
	result, err := db.Migrate(absDB, *command)
	if err != nil {
		log.Fatal().Err(err).Str("db", absDB).Str("command", *command).Msg("Migration failed")
	}
	log.Info().Str("db", absDB).Msg(result)
}
