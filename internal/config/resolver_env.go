package config

import "time"

// ResolverConfig binds the environment-controlled knobs named in the
// external interfaces section: cache/resolve TTLs, stream-expression and
// keyword-filter caps, proxy defaults, and addon/catalog fan-out bounds.
// Parsed with caarlos0/env, which understands time.Duration/bool/int tags
// directly from the `env` struct tags below.
type ResolverConfig struct {
	ExcludePrivateTrackers bool `env:"DEBRID_EXCLUDE_PRIVATE_TRACKERS" envDefault:"false"`

	LibraryCacheTTL       time.Duration `env:"LIBRARY_CACHE_TTL" envDefault:"10m"`
	LibraryStaleThreshold time.Duration `env:"LIBRARY_STALE_THRESHOLD" envDefault:"2m"`
	ResolveErrorCacheTTL  time.Duration `env:"RESOLVE_ERROR_CACHE_TTL" envDefault:"30s"`
	PlaybackLinkCacheTTL  time.Duration `env:"PLAYBACK_LINK_CACHE_TTL" envDefault:"4h"`
	AvailabilityCacheTTL  time.Duration `env:"AVAILABILITY_CACHE_TTL" envDefault:"5m"`

	LibraryPageSize  int `env:"LIBRARY_PAGE_SIZE" envDefault:"500"`
	LibraryPageLimit int `env:"LIBRARY_PAGE_LIMIT" envDefault:"50"`

	PlaybackLinkValidity time.Duration `env:"PLAYBACK_LINK_VALIDITY" envDefault:"24h"`

	MaxStreamExpressions               int `env:"MAX_STREAM_EXPRESSIONS" envDefault:"50"`
	MaxStreamExpressionsTotalCharacters int `env:"MAX_STREAM_EXPRESSIONS_TOTAL_CHARACTERS" envDefault:"8192"`
	MaxKeywordFilters                  int `env:"MAX_KEYWORD_FILTERS" envDefault:"100"`
	MaxGroups                          int `env:"MAX_GROUPS" envDefault:"20"`
	MaxMergedCatalogSources            int `env:"MAX_MERGED_CATALOG_SOURCES" envDefault:"10"`
	MaxAddons                          int `env:"MAX_ADDONS" envDefault:"10"`

	ForceProxyURL      string `env:"FORCE_PROXY_URL" envDefault:""`
	ForceProxyUsername string `env:"FORCE_PROXY_USERNAME" envDefault:""`
	ForceProxyPassword string `env:"FORCE_PROXY_PASSWORD" envDefault:""`

	DefaultProxyURL      string `env:"DEFAULT_PROXY_URL" envDefault:""`
	DefaultProxyUsername string `env:"DEFAULT_PROXY_USERNAME" envDefault:""`
	DefaultProxyPassword string `env:"DEFAULT_PROXY_PASSWORD" envDefault:""`

	RegexAccess string `env:"REGEX_ACCESS" envDefault:"trusted"`
}

// ValidateStreamExpressions enforces the count/length caps at config
// ingestion time, per §9's "rejections must happen at config validation,
// not during streaming."
func (r ResolverConfig) ValidateStreamExpressions(exprs []string) error {
	if len(exprs) > r.MaxStreamExpressions {
		return errTooManyExpressions(len(exprs), r.MaxStreamExpressions)
	}
	total := 0
	for _, e := range exprs {
		total += len(e)
	}
	if total > r.MaxStreamExpressionsTotalCharacters {
		return errExpressionsTooLong(total, r.MaxStreamExpressionsTotalCharacters)
	}
	return nil
}
