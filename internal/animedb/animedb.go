// Package animedb ships an in-memory anime-id mapping lookup keyed by any
// of the supported content id schemes, per the "anime mapping file" design
// note: loading must be deterministic and verifiable.
package animedb

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streamforge/resolver/internal/models"
)

type entry struct {
	ImdbID          string   `json:"imdbId,omitempty"`
	TmdbID          string   `json:"tmdbId,omitempty"`
	TvdbID          string   `json:"tvdbId,omitempty"`
	AnilistID       string   `json:"anilistId,omitempty"`
	MalID           string   `json:"malId,omitempty"`
	StartingSeason  int      `json:"startingSeason,omitempty"`
	NonImdbEpisodes []uint   `json:"nonImdbEpisodes,omitempty"`
	SeasonYear      int      `json:"seasonYear,omitempty"`
}

// DB is a process-wide, read-only anime mapping lookup.
type DB struct {
	mu      sync.RWMutex
	byImdb  map[string]models.AnimeMapping
	byTmdb  map[string]models.AnimeMapping
	byTvdb  map[string]models.AnimeMapping
	byAnil  map[string]models.AnimeMapping
	byMal   map[string]models.AnimeMapping
}

// New builds an empty, ready-to-load database.
func New() *DB {
	return &DB{
		byImdb: map[string]models.AnimeMapping{},
		byTmdb: map[string]models.AnimeMapping{},
		byTvdb: map[string]models.AnimeMapping{},
		byAnil: map[string]models.AnimeMapping{},
		byMal:  map[string]models.AnimeMapping{},
	}
}

// LoadJSON deterministically populates the database from a JSON array of
// mapping entries. Loading is verifiable: the same bytes always yield the
// same lookup tables, and a malformed entry aborts the whole load rather
// than partially applying it.
func (db *DB) LoadJSON(data []byte) error {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("animedb: invalid mapping file: %w", err)
	}

	byImdb := map[string]models.AnimeMapping{}
	byTmdb := map[string]models.AnimeMapping{}
	byTvdb := map[string]models.AnimeMapping{}
	byAnil := map[string]models.AnimeMapping{}
	byMal := map[string]models.AnimeMapping{}

	for _, e := range entries {
		nonImdb := make(map[uint]struct{}, len(e.NonImdbEpisodes))
		for _, ep := range e.NonImdbEpisodes {
			nonImdb[ep] = struct{}{}
		}
		mapping := models.AnimeMapping{
			ImdbID:          e.ImdbID,
			TmdbID:          e.TmdbID,
			TvdbID:          e.TvdbID,
			AnilistID:       e.AnilistID,
			MalID:           e.MalID,
			StartingSeason:  e.StartingSeason,
			NonImdbEpisodes: nonImdb,
			SeasonYear:      e.SeasonYear,
		}
		if e.ImdbID != "" {
			byImdb[e.ImdbID] = mapping
		}
		if e.TmdbID != "" {
			byTmdb[e.TmdbID] = mapping
		}
		if e.TvdbID != "" {
			byTvdb[e.TvdbID] = mapping
		}
		if e.AnilistID != "" {
			byAnil[e.AnilistID] = mapping
		}
		if e.MalID != "" {
			byMal[e.MalID] = mapping
		}
	}

	db.mu.Lock()
	db.byImdb, db.byTmdb, db.byTvdb, db.byAnil, db.byMal = byImdb, byTmdb, byTvdb, byAnil, byMal
	db.mu.Unlock()
	return nil
}

// Lookup resolves a mapping entry by any supported id kind.
func (db *DB) Lookup(kind models.IDKind, value string) (models.AnimeMapping, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	switch kind {
	case models.IDKindIMDB:
		m, ok := db.byImdb[value]
		return m, ok
	case models.IDKindTMDB:
		m, ok := db.byTmdb[value]
		return m, ok
	case models.IDKindTVDB:
		m, ok := db.byTvdb[value]
		return m, ok
	case models.IDKindAnilist:
		m, ok := db.byAnil[value]
		return m, ok
	case models.IDKindMAL:
		m, ok := db.byMal[value]
		return m, ok
	default:
		return models.AnimeMapping{}, false
	}
}
