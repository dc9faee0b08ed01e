// Package cachekey is the single source of cache key construction for both
// tiers. Equivalent lookups always produce the same key.
package cachekey

import (
	"fmt"
	"strings"
)

// Kind identifies the entity family a key belongs to
type Kind string

const (
	KindTravelsList    Kind = "travelsList"
	KindUserTravels    Kind = "userTravels"
	KindTravel         Kind = "travel"
	KindPagesList      Kind = "pagesList"
	KindPage           Kind = "page"
	KindImages         Kind = "images"
	KindProfile        Kind = "profile"
	KindSearchResults  Kind = "searchResults"
	KindPageNavigation Kind = "pageNavigation"
)

// Client-tier key prefixes
const (
	PrefixTravelsList = "travels_list_"
	PrefixUserTravels = "travels_list_user_"
	PrefixTravel      = "travel_"
	PrefixPages       = "pages_travel_"
	PrefixPage        = "page_"
	PrefixImages      = "images_page_"
	PrefixProfile     = "profile_"
	PrefixSearch      = "search_"
	PrefixNavigation  = "navigation_"
)

// AllTravels is the key of the global travel list
func AllTravels() string {
	return PrefixTravelsList + "all"
}

// UserTravels is the key of one user's travel list
func UserTravels(userID string) string {
	return PrefixUserTravels + userID
}

// Travel is the key of a single travel
func Travel(travelID int64) string {
	return fmt.Sprintf("%s%d", PrefixTravel, travelID)
}

// Pages is the key of the page list of a travel
func Pages(travelID int64) string {
	return fmt.Sprintf("%s%d", PrefixPages, travelID)
}

// Page is the key of a single page
func Page(pageID int64) string {
	return fmt.Sprintf("%s%d", PrefixPage, pageID)
}

// Images is the key of the images of a page
func Images(pageID int64) string {
	return fmt.Sprintf("%s%d", PrefixImages, pageID)
}

// Profile is the key of a user profile
func Profile(userID string) string {
	return PrefixProfile + userID
}

// Search is the key of a search. Queries differing only in case or
// surrounding whitespace share a key.
func Search(query string) string {
	return PrefixSearch + NormalizeQuery(query)
}

// Navigation is the key of a page's position within its travel
func Navigation(pageID, travelID int64) string {
	return fmt.Sprintf("%s%d_%d", PrefixNavigation, pageID, travelID)
}

// NormalizeQuery trims and lowercases a search query
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// NavigationOfTravel matches every navigation key belonging to travelID
func NavigationOfTravel(travelID int64) func(key string) bool {
	suffix := fmt.Sprintf("_%d", travelID)
	return func(key string) bool {
		return strings.HasPrefix(key, PrefixNavigation) && strings.HasSuffix(key, suffix)
	}
}
