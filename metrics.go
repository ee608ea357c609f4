//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package smpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smpc",
		Name:      "operations_total",
		Help:      "Number of dispatched operations by operator and operand kinds.",
	}, []string{"op", "kind"})

	triplesConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smpc",
		Name:      "triples_consumed_total",
		Help:      "Number of Beaver triples consumed.",
	})

	sharesDistributed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smpc",
		Name:      "shares_distributed_total",
		Help:      "Number of secret tensors distributed to the parties.",
	})

	reconstructions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smpc",
		Name:      "reconstructions_total",
		Help:      "Number of reconstructed secret tensors.",
	})

	partyUnavailable = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smpc",
		Name:      "party_unavailable_total",
		Help:      "Number of round-trips that found the party unavailable.",
	}, []string{"party"})
)
