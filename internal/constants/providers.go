package constants

// Provider name constants for consistent usage across internal packages
const (
	ProviderYGG         = "ygg"
	ProviderApiBay      = "apibay"
	ProviderTorrentsCSV = "torrentscsv"
)