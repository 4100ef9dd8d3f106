package main

import (
	"context"
	"log"
	"os"
	"time"

	"karyoscore/adapters/sqlstore"
	"karyoscore/internal/config"
	"karyoscore/internal/migration"

	"github.com/joho/godotenv"
)

// migrate applies the run history schema to DATABASE_URL, or to the
// database given as arguments: migrate [driver database_url]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	driver, url := cfg.Database.Driver, cfg.Database.URL
	switch len(os.Args) {
	case 1:
	case 3:
		driver, url = os.Args[1], os.Args[2]
	default:
		log.Fatal("Usage: migrate [<sqlite|postgres> <database_url>]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Printf("Applying schema %s to %s database", migration.NewRunner().Version(), driver)
	db, err := sqlstore.Open(ctx, driver, url)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	var runs int
	if err := db.GetContext(ctx, &runs, `SELECT COUNT(*) FROM batch_runs`); err != nil {
		log.Fatalf("Failed to count runs: %v", err)
	}
	log.Printf("Migration complete: %d runs stored", runs)
}
