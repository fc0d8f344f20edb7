package handler

import (
	"net/http"

	"github.com/bindisa/agritech-api/internal/api/response"
	"github.com/bindisa/agritech-api/internal/llm"
	mongorepo "github.com/bindisa/agritech-api/internal/repository/mongo"
	"github.com/bindisa/agritech-api/internal/repository/postgres"
	"github.com/bindisa/agritech-api/internal/repository/redis"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including datastore connectivity.
// redisClient may be nil when Redis is not configured.
func ReadyCheck(db *postgres.DB, mongo *mongorepo.Client, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}
		if err := mongo.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "session store not ready")
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				response.Error(w, http.StatusServiceUnavailable, "cache not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListLLMProviders returns the configured model providers
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        router.GetProvidersInfo(),
			"default_provider": router.DefaultProvider(),
		})
	}
}

// FlushCache clears the cached analytics snapshots from Redis; admin only
func FlushCache(cache *redis.AnalyticsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := cache.FlushAll(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to flush cache: "+err.Error())
			return
		}

		response.OK(w, map[string]any{
			"message":      "cache flushed successfully",
			"keys_deleted": deleted,
		})
	}
}
