package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/converge/internal/agent"
	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/graph"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

type triggerRequest struct {
	Payload map[string]string `json:"payload"`
}

type executedRequest struct {
	Executed any `json:"executed"`
}

func (s *Server) RegisterRoutes() {
	r := s.router

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"agent":   s.ID,
			"version": version,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ready", func(c *gin.Context) {
		ready := s.agent.Ready()
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready":  ready,
			"status": s.agent.Status(),
			"agent":  s.ID,
		})
	})

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"published": s.agent.Status(),
			"current":   s.agent.CurrentStatus(),
			"items":     s.agent.Statuses(),
		})
	})

	r.GET("/items", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": s.agent.Summary()})
	})

	r.GET("/history", func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}
		c.JSON(http.StatusOK, gin.H{"passes": s.agent.History(limit)})
	})

	r.GET("/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"events": s.agent.EventsToObserve()})
	})

	admin := r.Group("/", s.requireToken())

	// ?wait=true runs the pass inline and returns its record. The pass outlives a
	// dropped client so a disconnect cannot interrupt a half-applied component.
	admin.POST("/events/:name", func(c *gin.Context) {
		var req triggerRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		event := component.NewEvent(c.Param("name"))
		event.Payload = req.Payload

		if c.Query("wait") == "true" {
			rec, err := s.agent.TriggerNow(context.WithoutCancel(c.Request.Context()), event)
			if errors.Is(err, agent.ErrInvalidEvent) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "pass": rec})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok", "pass": rec})
			return
		}

		if err := s.agent.Trigger(event); err != nil {
			code := http.StatusInternalServerError
			switch {
			case errors.Is(err, agent.ErrQueueFull):
				code = http.StatusTooManyRequests
			case errors.Is(err, agent.ErrInvalidEvent):
				code = http.StatusBadRequest
			}
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "event": event.Name})
	})

	admin.POST("/items/:name/executed", func(c *gin.Context) {
		var req executedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		name := c.Param("name")
		if err := s.agent.SetExecuted(name, req.Executed); err != nil {
			code := http.StatusInternalServerError
			switch {
			case errors.Is(err, agent.ErrUnknownItem):
				code = http.StatusNotFound
			case errors.Is(err, graph.ErrInvalidExecutedValue):
				code = http.StatusBadRequest
			}
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "item": name, "executed": req.Executed})
	})
}
