package cachekey

import "time"

// Server-tier keys and patterns
const (
	ServerAllTravels   = "travels:all"
	ServerSearchPrefix = "travels:search:"
	ServerUserPrefix   = "travels:user:"

	ServerSearchPattern = ServerSearchPrefix + "*"
	ServerUserPattern   = ServerUserPrefix + "*"
	ServerAllPattern    = "travels:*"
)

// Default server-tier TTLs
const (
	ServerTTLAllTravels = 300 * time.Second
	ServerTTLSearch     = 180 * time.Second
	ServerTTLUser       = 600 * time.Second
)

// ServerSearch is the server-tier key of a normalized search
func ServerSearch(query string) string {
	return ServerSearchPrefix + NormalizeQuery(query)
}

// ServerUser is the server-tier key of a user's travel list
func ServerUser(userID string) string {
	return ServerUserPrefix + userID
}

// InvalidationType names a family of server-tier keys cleared together
type InvalidationType string

const (
	InvalidateAll    InvalidationType = "all"
	InvalidateSearch InvalidationType = "search"
	InvalidateUsers  InvalidationType = "users"
)

// ParseInvalidationType validates the path segment of DELETE /api/cache/{type}
func ParseInvalidationType(s string) (InvalidationType, bool) {
	switch t := InvalidationType(s); t {
	case InvalidateAll, InvalidateSearch, InvalidateUsers:
		return t, true
	default:
		return "", false
	}
}
