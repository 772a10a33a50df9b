// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the muster service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	musterservice "github.com/united-manufacturing-hub/emuster/pkg/service/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

// Server wraps the HTTP server with routing and lifecycle management.
type Server struct {
	server   *http.Server
	logger   *zap.SugaredLogger
	service  musterservice.IMusterService
	topology *topology.Provider
	config   *ServerConfig
}

// NewServer creates a server over the given service.
func NewServer(service musterservice.IMusterService, topo *topology.Provider, config *ServerConfig, logger *zap.SugaredLogger) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Server{
		service:  service,
		topology: topo,
		config:   config,
		logger:   logger,
	}, nil
}

// Router builds the gin engine with all middleware and routes.
func (s *Server) Router() *gin.Engine {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	if len(s.config.CORSOrigins) > 0 {
		router.Use(s.corsMiddleware())
	}

	v1 := router.Group("/api/v1")
	v1.GET("/topology", s.getTopology)

	acting := v1.Group("", s.actorMiddleware())

	acting.POST("/musters", s.createMuster)
	acting.GET("/musters/active", s.listActive)
	acting.GET("/musters/history", s.listHistory)
	acting.GET("/musters/:id", s.getMuster)
	acting.DELETE("/musters/:id", s.deleteDraft)
	acting.POST("/musters/:id/results", s.recordResult)
	acting.POST("/musters/:id/fetch", s.fetchAutomatic)
	acting.POST("/musters/:id/samples", s.scanSample)
	acting.POST("/musters/:id/actions", s.advance)
	acting.POST("/musters/:id/report", s.submitReport)
	acting.POST("/musters/:id/report/comments", s.annotateReport)
	acting.POST("/musters/:id/decision", s.decide)
	acting.POST("/musters/:id/section", s.assignSection)
	acting.GET("/kpi", s.kpi)

	v1.GET("/fetches/:token", s.fetchState)
	v1.DELETE("/fetches/:token", s.discardFetch)

	return router
}

// Start serves until Stop is called. It blocks.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.logger.Infow("Starting muster API",
		"port", s.config.Port,
		"debug", s.config.Debug,
		"cors_origins", s.config.CORSOrigins,
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Errorw("Muster API failed", "error", err)

		return err
	}

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("Stopping muster API")

	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.logger.Debugw("API request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		for _, allowedOrigin := range s.config.CORSOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				c.Header("Access-Control-Allow-Origin", allowedOrigin)
				c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, X-Actor-Id, X-Actor-Name, X-Actor-Role, X-Actor-Area, X-Actor-Line, X-Actor-Section")

				break
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)

			return
		}

		c.Next()
	}
}
