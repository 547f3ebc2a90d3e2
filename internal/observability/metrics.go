// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailyprompt_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dailyprompt_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AnswersSubmitted counts stored answers by author kind ("registered" or "anonymous").
	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailyprompt_answers_submitted_total",
		Help: "Total number of answers stored",
	}, []string{"author"})

	// AnonymousUsersCreated counts implicitly created users.
	AnonymousUsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailyprompt_anonymous_users_created_total",
		Help: "Total number of anonymous users synthesised for answers",
	})

	// LoginAttempts counts login attempts by outcome ("success" or "failure").
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailyprompt_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// PromptCacheLookups counts active prompt cache lookups by result ("hit" or "miss").
	PromptCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailyprompt_prompt_cache_lookups_total",
		Help: "Prompt cache lookups by result",
	}, []string{"result"})

	// ActivePromptRotations counts active prompt switches.
	ActivePromptRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailyprompt_active_prompt_rotations_total",
		Help: "Total number of times the active prompt changed",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
