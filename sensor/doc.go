// Package sensor receives crowd counts pushed by the vision counters over
// NATS. Each message triggers one fusion invocation, mirroring the HTTP
// sensor-update endpoint for deployments where counters publish instead of
// POSTing.
package sensor
