// Package metrics exposes session and engine counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lizboard"

var (
	// MovesPlayed counts entries added to a board. Labels: kind (move, pass).
	MovesPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "moves_played_total",
		Help:      "Moves and passes added to a board",
	}, []string{"kind"})

	// MovesRejected counts plays refused because the point was taken or
	// malformed.
	MovesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "moves_rejected_total",
		Help:      "Plays rejected without a state change",
	})

	// Branches counts lines archived by diverging.
	Branches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "branches_total",
		Help:      "Lines archived because play diverged from them",
	})

	// EngineUpdates counts engine callbacks. Labels: kind (board, suggest),
	// result (applied, stale).
	EngineUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "updates_total",
		Help:      "Engine callbacks by kind and whether they matched the cursor",
	}, []string{"kind", "result"})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "clients",
		Help:      "Connected renderers",
	})

	StreamDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "dropped_total",
		Help:      "Stream messages dropped because the queue was full",
	})
)

// Applied and Stale are the result label values of EngineUpdates.
const (
	Applied = "applied"
	Stale   = "stale"
)
