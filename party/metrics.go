//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	serverRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smpc",
		Subsystem: "party",
		Name:      "requests_total",
		Help:      "Number of requests served by command.",
	}, []string{"command"})

	serverFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smpc",
		Subsystem: "party",
		Name:      "failures_total",
		Help:      "Number of failed requests by command.",
	}, []string{"command"})

	storedTensors = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "smpc",
		Subsystem: "party",
		Name:      "stored_tensors",
		Help:      "Number of tensors held in party stores.",
	})
)
