package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Short-lived quote data (changes every few minutes)
	TTLMarketData = 5 * time.Minute

	// Scraped/derived data refreshes on a slower cadence
	TTLNews     = time.Hour
	TTLEarnings = time.Hour
)
