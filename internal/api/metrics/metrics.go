// Package metrics holds the custom Prometheus collectors of the auth
// service. HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "springshield"

// Registration outcomes.
const (
	RegistrationCreated        = "created"
	RegistrationUserExists     = "user_exists"
	RegistrationRoleNotFound   = "role_not_found"
	RegistrationInvalidPayload = "invalid_payload"
	RegistrationError          = "error"
)

// Authentication outcomes.
const (
	AuthenticationSuccess            = "success"
	AuthenticationInvalidCredentials = "invalid_credentials"
	AuthenticationInvalidPayload     = "invalid_payload"
	AuthenticationError              = "error"
)

// RegistrationsTotal counts registration attempts by result.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// AuthenticationsTotal counts login attempts by result.
var AuthenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentications_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)
