package http

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-api/internal/httputil"
	"github.com/redmonkez12/go-auth-api/internal/logging"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// PostgresCheck pings the database pool
func PostgresCheck(db *bun.DB) HealthCheck {
	return HealthCheck{Name: "postgres", Check: db.PingContext}
}

// RedisCheck pings the Redis client
func RedisCheck(client *redis.Client) HealthCheck {
	return HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string `json:"status"`
	Dependency string `json:"dependency,omitempty"`
}

// handleHealth reports whether the API and its dependencies are reachable
// @Summary      Health check
// @Description  Pings the database and, when configured, Redis
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logging.GetLoggerFromContext(r.Context()).Error("health check failed", "dependency", c.Name, "error", err.Error())
				httputil.RespondJSON(w, HealthResponse{Status: "unavailable", Dependency: c.Name}, http.StatusServiceUnavailable)
				return
			}
		}

		httputil.RespondJSON(w, HealthResponse{Status: "ok"}, http.StatusOK)
	}
}
