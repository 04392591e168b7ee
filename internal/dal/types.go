package dal

import "context"

// Collection names one whole-document key in the store
type Collection string

const (
	CollectionMatches        Collection = "picklewickel_matches_v1"
	CollectionScrapedMatches Collection = "picklewickel_scraped_matches_v1"
	CollectionTournaments    Collection = "picklewickel_tournaments_v1"
	CollectionScrapeTargets  Collection = "picklewickel_scrape-targets_v1"
	CollectionScraperHealth  Collection = "picklewickel:scraper:health"
)

// Store is a flat key-value store holding one JSON document per key.
//
// There is no partial update and no transaction: callers read a whole
// collection, change it in memory and write the whole collection back. Two
// concurrent read-modify-write cycles on the same key race and the later Set
// wins.
type Store interface {
	// Get returns the document stored at key. ok is false when the key has
	// never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
