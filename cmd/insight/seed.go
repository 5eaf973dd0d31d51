package main

import (
	"context"
	"fmt"

	"stock-insight/internal/logger"
	"stock-insight/internal/textstore"
)

// seedSQLite imports the companies in file into the database at dbPath
func seedSQLite(ctx context.Context, file, dbPath string) error {
	seed, err := textstore.LoadSeed(file)
	if err != nil {
		return fmt.Errorf("load seed %s: %w", file, err)
	}

	db, err := textstore.OpenSQLite(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	timer := logger.StartOperation(ctx, "textstore.Import", "file", file, "db", dbPath)
	stats, err := db.Import(timer.GetContext(), seed)
	if err != nil {
		timer.EndWithError(err)
		return err
	}
	timer.End("companies", stats.Companies, "influencers", stats.Influencers, "texts", stats.Texts)

	fmt.Printf("Imported %d companies, %d influencers and %d texts into %s\n",
		stats.Companies, stats.Influencers, stats.Texts, dbPath)
	return nil
}
