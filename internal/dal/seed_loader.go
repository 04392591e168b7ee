package dal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadSeedDir loads <collection>.json files from dir into the store. A
// collection that already holds a document is left alone so restarts never
// clobber live data. It returns the collections that were seeded.
func LoadSeedDir(ctx context.Context, s Store, dir string) ([]Collection, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		// Seed directory doesn't exist, nothing to load
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list seed files: %w", err)
	}

	known := map[string]Collection{}
	for _, c := range []Collection{
		CollectionMatches,
		CollectionScrapedMatches,
		CollectionTournaments,
		CollectionScrapeTargets,
		CollectionScraperHealth,
	} {
		known[string(c)] = c
	}

	var seeded []Collection
	for _, filePath := range files {
		name := strings.TrimSuffix(filepath.Base(filePath), ".json")
		c, ok := known[name]
		if !ok {
			continue
		}

		if _, exists, err := s.Get(ctx, string(c)); err != nil {
			return seeded, fmt.Errorf("failed to check %s: %w", c, err)
		} else if exists {
			continue
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return seeded, fmt.Errorf("failed to read seed file %s: %w", filePath, err)
		}
		if !json.Valid(data) {
			return seeded, fmt.Errorf("seed file %s is not valid JSON", filePath)
		}

		if err := s.Set(ctx, string(c), data); err != nil {
			return seeded, fmt.Errorf("failed to seed %s: %w", c, err)
		}
		seeded = append(seeded, c)
	}

	return seeded, nil
}
