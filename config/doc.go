// Package config loads the transight configuration from config.yml with
// environment overrides for secrets, and validates it before the service
// starts. Components receive their slice of the config at construction.
package config
