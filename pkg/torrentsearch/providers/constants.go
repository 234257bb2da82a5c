package providers

// Provider name constants for consistent usage across the codebase
const (
	ProviderYGG        = "ygg"
	ProviderApiBay     = "apibay"
	ProviderTorrentsCSV = "torrentscsv"
)