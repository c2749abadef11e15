package main

import (
	"context"
	"log"
	"os"

	"github.com/orhss/finagg/internal/store"
)

func main() {
	dbURL := os.Getenv("DB_SOURCE")
	if dbURL == "" {
		log.Fatal("DB_SOURCE environment variable is required")
	}

	ctx := context.Background()
	st, err := store.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Schema is up to date.")
}
