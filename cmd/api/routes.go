package main

import (
	"net/http"

	"vpbx-platform/internal/audit"
	"vpbx-platform/internal/calls"
	"vpbx-platform/internal/httpapi"
	"vpbx-platform/internal/rbac"
	"vpbx-platform/internal/reporting"
	"vpbx-platform/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routeDeps struct {
	authMW  gin.HandlerFunc
	webhook *telephony.WebhookHandler
	calls   *calls.Service
	reports *reporting.Service
	audit   *audit.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// PBX callbacks authenticate by signature, not by token.
	d.webhook.Register(r)

	h := httpapi.Handlers{Calls: d.calls, Reports: d.reports, Audit: d.audit}

	v1 := r.Group("/v1")
	v1.Use(d.authMW)
	{
		callsGroup := v1.Group("/calls")
		callsGroup.Use(rbac.RequireAnyRole(rbac.RoleOperator))
		{
			callsGroup.POST("", h.PlaceCall)
			callsGroup.POST("/hangup", h.Hangup)
		}

		v1.POST("/stats", rbac.RequireAnyRole(rbac.RoleAnalyst), h.Stats)
	}
}
