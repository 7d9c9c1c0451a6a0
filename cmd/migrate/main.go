// Command migrate runs schema operations for the backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|down|version|list>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	if cmd == "list" {
		files, err := database.MigrationFiles()
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.SetupLogger(os.Stdout, cfg.Env)
	if cfg.DBDriver != "postgres" {
		return fmt.Errorf("sql migrations require DB_DRIVER=postgres, got %q", cfg.DBDriver)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		log.Printf("version=%d dirty=%t", version, dirty)
		return nil
	default:
		return usage()
	}
}
