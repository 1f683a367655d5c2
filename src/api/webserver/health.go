package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Health struct {
	d Deps
}

func NewHealth(d Deps) Health {
	return Health{d: d}
}

// Live always answers; it only proves the process is serving.
func (h Health) Live(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready checks the configured backing stores.
func (h Health) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	if h.d.DB != nil {
		status := "ok"
		if sqlDB, err := h.d.DB.DB(); err != nil {
			status = err.Error()
		} else if err := sqlDB.PingContext(ctx); err != nil {
			status = err.Error()
		}
		healthy = healthy && status == "ok"
		checks["database"] = status
	}
	if h.d.Redis != nil {
		status := "ok"
		if err := h.d.Redis.Ping(ctx).Err(); err != nil {
			status = err.Error()
		}
		healthy = healthy && status == "ok"
		checks["redis"] = status
	}

	code, status := http.StatusOK, "healthy"
	if !healthy {
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(code, gin.H{"status": status, "checks": checks, "timestamp": unixSeconds(time.Now())})
}

// Info describes the loaded model, rules and catalog.
func (h Health) Info(c *gin.Context) {
	info := gin.H{"name": "MMR Solidarity API"}
	if h.d.AI != nil {
		info["model"] = h.d.AI.Model()
	}
	info["provider"] = h.d.Config.AI.Provider
	if h.d.Catalog != nil {
		rules := h.d.Catalog.Engine().Rules()
		info["rulesVersion"] = rules.Version
		info["pillars"] = rules.Pillars
		info["profiles"] = h.d.Catalog.Len()
	}
	c.JSON(http.StatusOK, info)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
