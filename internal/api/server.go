// Package api exposes the application lifecycle and notification queries over
// JSON HTTP.
package api

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobboard/internal/auth"
	"github.com/amishk599/jobboard/internal/feed"
	"github.com/amishk599/jobboard/internal/lifecycle"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/ratelimit"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handler dependencies.
type Server struct {
	engine  *lifecycle.Engine
	feed    *feed.Service
	tokens  *auth.Tokens
	limiter *ratelimit.Limiter
	db      Pinger
	logger  *slog.Logger
}

// NewServer wires the handlers. limiter may be nil to disable apply throttling.
func NewServer(engine *lifecycle.Engine, feeds *feed.Service, tokens *auth.Tokens, limiter *ratelimit.Limiter, db Pinger, logger *slog.Logger) *Server {
	return &Server{
		engine:  engine,
		feed:    feeds,
		tokens:  tokens,
		limiter: limiter,
		db:      db,
		logger:  logger,
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	api := router.Group("/api")
	api.GET("/health", s.health)

	apps := api.Group("/applications")
	apps.Use(requireAuth(s.tokens))
	{
		applicant := requireRole(model.RoleApplicant)
		employer := requireRole(model.RoleEmployer)

		apps.POST("/:id", applicant, s.createApplication)
		apps.GET("/my", applicant, s.myApplications)
		apps.GET("/unseen-count", applicant, s.unseenCount)
		apps.GET("/unseen", applicant, s.unseenApplications)
		apps.PATCH("/:id/seen", applicant, s.markSeen(model.RoleApplicant))

		apps.GET("/job/:jobId", employer, s.jobApplications)
		apps.PUT("/:id/status", employer, s.updateStatus)
		apps.GET("/employer/unseen", employer, s.employerUnseen)
		apps.PATCH("/:id/employer-seen", employer, s.markSeen(model.RoleEmployer))
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createRequest struct {
	CoverLetter string `json:"coverLetter"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) createApplication(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	jobID := c.Param("id")
	key := jobID + ":" + callerID(c)
	if s.limiter != nil {
		if wait, ok := s.limiter.Wait(key); !ok {
			// A refusal the engine would give anyway wins over the throttle.
			if err := s.engine.CheckApplication(c.Request.Context(), jobID, callerID(c), req.CoverLetter); err != nil {
				s.respondError(c, err)
				return
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many apply attempts, try again later"})
			return
		}
	}

	app, err := s.engine.CreateApplication(c.Request.Context(), jobID, callerID(c), req.CoverLetter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if s.limiter != nil {
		s.limiter.Record(key)
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": app})
}

func (s *Server) myApplications(c *gin.Context) {
	apps, err := s.feed.ListMine(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(apps), "data": nonNil(apps)})
}

func (s *Server) jobApplications(c *gin.Context) {
	apps, err := s.feed.JobApplications(c.Request.Context(), c.Param("jobId"), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(apps), "data": nonNil(apps)})
}

func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	app, err := s.engine.UpdateStatus(c.Request.Context(), c.Param("id"), callerID(c), req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": app})
}

func (s *Server) unseenCount(c *gin.Context) {
	n, err := s.feed.UnseenCount(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": n})
}

func (s *Server) unseenApplications(c *gin.Context) {
	items, err := s.feed.ApplicantFeed(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (s *Server) employerUnseen(c *gin.Context) {
	items, err := s.feed.EmployerFeed(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (s *Server) markSeen(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.feed.MarkSeen(c.Request.Context(), id, callerID(c), role); err != nil {
			s.respondError(c, err)
			return
		}
		field := "isSeenByApplicant"
		if role == model.RoleEmployer {
			field = "isSeenByEmployer"
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": id, field: true}})
	}
}

func nonNil(apps []model.Application) []model.Application {
	if apps == nil {
		return []model.Application{}
	}
	return apps
}
