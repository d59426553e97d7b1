package domain

// Feed names one of the per-station NDBC realtime files.
type Feed string

const (
	FeedStandard Feed = "txt"  // standard meteorological text
	FeedSpectral Feed = "spec" // spectral wave summary text
	FeedJSON     Feed = "json" // JSON rendition of the standard feed
)

// Valid reports whether f is a known feed.
func (f Feed) Valid() bool {
	switch f {
	case FeedStandard, FeedSpectral, FeedJSON:
		return true
	default:
		return false
	}
}
