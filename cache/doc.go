// Package cache holds the time-bounded vehicle snapshot per queried area.
// Staleness is preferred over unavailability: when a refresh fails the last
// good snapshot is served, and an empty set only when the cache is cold.
package cache
