package main

import (
	"context"
	"log"
	"os"

	"privydocs/internal/config"
	"privydocs/internal/repository"
	"privydocs/internal/repository/postgres"
	"privydocs/internal/seed"
	"privydocs/internal/service/registry"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

func main() {
	// Parse command-line flags
	fixturePath := flag.StringP("file", "f", "fixtures/documents.yaml", "YAML fixture of documents to seed")
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	clearData := flag.Bool("clear-data", false, "Clear all documents and grants (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required for seeding")
	}

	logger := config.NewLogger(cfg, os.Stdout)

	switch {
	case *clearData:
		log.Printf("Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	case *schemaOnly:
		log.Printf("Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	default:
		log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Opening the backend ensures the schema exists
	ctx := context.Background()
	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer backend.Close()

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := postgres.DropSchema(ctx, backend.Pool, backend.Tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		if err := postgres.EnsureSchema(ctx, backend.Pool, backend.Tables); err != nil {
			log.Fatalf("Failed to recreate schema: %v", err)
		}
		log.Println("Tables recreated")
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := postgres.ClearData(ctx, backend.Pool, backend.Tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("Data cleared successfully")
		return
	}

	fixture, err := seed.LoadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	// Seed on top of whatever the journal already holds; nobody subscribes to the feed here
	components, err := registry.Setup(ctx, backend.Journal, registry.SystemClock{}, cfg.JournalFlushInterval, logger, registry.WithoutHub())
	if err != nil {
		log.Fatalf("Failed to restore registry: %v", err)
	}

	ids, seedErr := seed.NewSeeder(components.Registry, logger).Seed(ctx, fixture)

	// Persist whatever was applied, even if a later fixture failed
	if err := components.Outbox.Close(ctx); err != nil {
		log.Fatalf("Failed to flush journal: %v", err)
	}
	if seedErr != nil {
		log.Fatalf("Failed to seed documents: %v", seedErr)
	}

	log.Printf("Seeded %d documents (ids %v), registry now holds %d", len(ids), ids, components.Registry.TotalDocuments(ctx))
}
