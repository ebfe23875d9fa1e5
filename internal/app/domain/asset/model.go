// Package asset defines the tokens the gateway can price and convert.
package asset

import "time"

// Code identifies a supported asset.
type Code string

const (
	BGT  Code = "bgt"
	BST  Code = "bst"
	BPT  Code = "bpt"
	BINR Code = "binr"
	RWA  Code = "rwa"
)

// Source records how a quote was obtained.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Volatility is the static risk classification of an asset. It feeds the
// slippage buffer, not any real variance estimate.
type Volatility string

const (
	VolatilityMinimal Volatility = "minimal"
	VolatilityLow     Volatility = "low"
	VolatilityMedium  Volatility = "medium"
	VolatilityHigh    Volatility = "high"
	VolatilityUnknown Volatility = "unknown"
)

// Quote is a point-in-time INR price observation for an asset. Quotes are
// immutable; a fresh lookup supersedes rather than mutates.
type Quote struct {
	Asset      Code       `json:"asset_type"`
	Price      float64    `json:"price"`
	Currency   string     `json:"currency"`
	Source     Source     `json:"source"`
	ObservedAt time.Time  `json:"observed_at"`
	Volatility Volatility `json:"volatility"`
	Confidence float64    `json:"confidence"`
}

var supported = []Code{BGT, BST, BPT, BINR, RWA}

// Supported returns the closed set of asset codes.
func Supported() []Code {
	out := make([]Code, len(supported))
	copy(out, supported)
	return out
}

// Valid reports whether the code belongs to the supported set.
func Valid(code Code) bool {
	for _, c := range supported {
		if c == code {
			return true
		}
	}
	return false
}
