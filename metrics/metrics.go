// Package metrics holds the panel's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodeRequests counts outbound node daemon calls by operation.
	NodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "panel_node_requests_total",
		Help: "Outbound node daemon requests by operation.",
	}, []string{"op"})

	// NodeRequestErrors counts failed node daemon calls (transport
	// errors and non-2xx responses) by operation.
	NodeRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "panel_node_request_errors_total",
		Help: "Failed node daemon requests by operation.",
	}, []string{"op"})

	// Deployments counts deployment attempts by outcome.
	Deployments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "panel_deployments_total",
		Help: "Instance deployment attempts by outcome.",
	}, []string{"outcome"})
)
