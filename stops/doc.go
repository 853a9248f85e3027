// Package stops holds the static registry of monitored stops and routes.
// The registry is loaded once at startup and read-only afterwards.
package stops
