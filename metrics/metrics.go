// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedFetches counts upstream feed fetches by outcome
	// (ok, transport_error, format_error).
	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transight",
		Subsystem: "feed",
		Name:      "fetches_total",
		Help:      "Vehicle feed fetch attempts by outcome.",
	}, []string{"outcome"})

	// CacheLookups counts vehicle cache lookups by result (hit, miss, stale).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transight",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Vehicle cache lookups by result.",
	}, []string{"result"})

	// VehiclesTracked reports the vehicle count in the most recent feed refresh.
	VehiclesTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "transight",
		Subsystem: "feed",
		Name:      "vehicles_tracked",
		Help:      "Vehicles in the latest cached feed snapshot.",
	})

	// Fusions counts fusion invocations by prediction method (model, fallback).
	Fusions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transight",
		Subsystem: "fusion",
		Name:      "runs_total",
		Help:      "Fusion invocations by prediction method.",
	}, []string{"method"})

	// PersistenceFailures counts prediction rows that could not be written.
	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "transight",
		Subsystem: "store",
		Name:      "persistence_failures_total",
		Help:      "Fusion records that failed to persist.",
	})

	// TrafficLookups counts traffic provider lookups by outcome (ok, cached, error).
	TrafficLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transight",
		Subsystem: "traffic",
		Name:      "lookups_total",
		Help:      "Traffic flow lookups by outcome.",
	}, []string{"outcome"})
)
