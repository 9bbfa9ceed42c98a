package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/seed"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

// SeedReport counts the records a reference-data file would import.
type SeedReport struct {
	Branches      int
	LegalEntities int
	Trucks        int
	Trailers      int
}

// CheckSeed parses the file at path and runs it through a throwaway store so
// every import rule is applied without touching real storage.
func CheckSeed(ctx context.Context, path string) (SeedReport, error) {
	data, err := seed.Load(path)
	if err != nil {
		return SeedReport{}, err
	}
	store := logistics.NewStore(ctx, kv.NewMemory(), logistics.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := store.ImportReferenceData(ctx, data); err != nil {
		return SeedReport{}, err
	}
	return SeedReport{
		Branches:      len(store.ListBranches()),
		LegalEntities: len(store.ListLegalEntities()),
		Trucks:        len(store.ListTrucks()),
		Trailers:      len(store.ListTrailers()),
	}, nil
}
