// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ServiceName identifies the HTTP server in traces.
const ServiceName = "docuflow"

// RegisterRoutes registers the documentation routes with the router.
//
// Description:
//
//	Routes:
//
//	GET /v1/docs/health                     - Health check
//	GET /v1/docs/packages                   - Package summaries
//	GET /v1/docs/packages/:name             - One package record
//	GET /v1/docs/packages/:name/components  - Component inspection
//	GET /v1/docs/files?path=                - One file's symbol table
//
// Example:
//
//	handlers := api.NewHandlers(doc)
//	v1 := router.Group("/v1")
//	api.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	docs := rg.Group("/docs")
	{
		docs.GET("/health", handlers.HandleHealth)

		docs.GET("/packages", handlers.HandleListPackages)
		docs.GET("/packages/:name", handlers.HandleGetPackage)
		docs.GET("/packages/:name/components", handlers.HandleGetComponents)

		docs.GET("/files", handlers.HandleGetFile)
	}
}

// NewRouter creates the engine used by `docuflow serve`: tracing and
// recovery middleware, the documentation routes under /v1 and Prometheus
// metrics at /metrics. Escaped slashes in path parameters are kept so scoped
// package names can be addressed.
func NewRouter(handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(gin.Recovery(), otelgin.Middleware(ServiceName))

	RegisterRoutes(router.Group("/v1"), handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
