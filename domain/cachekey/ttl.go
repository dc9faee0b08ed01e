package cachekey

import "time"

// TTLClass is a named client-tier time-to-live
type TTLClass time.Duration

const (
	TTLShort    = TTLClass(2 * time.Minute)
	TTLMedium   = TTLClass(5 * time.Minute)
	TTLLong     = TTLClass(15 * time.Minute)
	TTLVeryLong = TTLClass(60 * time.Minute)
)

// Duration returns the class as a time.Duration
func (c TTLClass) Duration() time.Duration {
	return time.Duration(c)
}

// TTLFor returns the class used when caching an entity of the given kind
func TTLFor(kind Kind) TTLClass {
	switch kind {
	case KindSearchResults:
		return TTLShort
	case KindTravel, KindPage, KindImages:
		return TTLLong
	case KindProfile:
		return TTLVeryLong
	default:
		return TTLMedium
	}
}
