package apihttp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"fincoach/internal/logger"
	"fincoach/internal/pipeline"
	"fincoach/internal/signal"
	"fincoach/internal/store"
	"fincoach/internal/store/auditlog"
)

// Router exposes the per-user read endpoints and the refresh/consent
// operations. Reads are thin pass-throughs over the store.
type Router struct {
	Store  store.Store
	Runner *pipeline.Runner
	Audit  *auditlog.Store
}

// Register mounts the API routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/users/:id/signals", r.handleSignals)
	group.GET("/users/:id/persona", r.handlePersona)
	group.GET("/users/:id/recommendations", r.handleRecommendations)
	group.GET("/recommendations/:id/trace", r.handleTrace)
	group.POST("/users/:id/refresh", r.handleRefreshUser)
	group.POST("/refresh", r.handleRefreshAll)
	group.PUT("/users/:id/consent", r.handleGrantConsent)
	group.DELETE("/users/:id/consent", r.handleRevokeConsent)
	if r.Audit != nil {
		group.GET("/audit", r.handleAudit)
	}
}

// read runs fn inside a read-only unit of work.
func (r *Router) read(c *gin.Context, fn func(uow store.UnitOfWork) error) {
	uow, err := r.Store.Begin(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer func() {
		if rbErr := uow.Rollback(); rbErr != nil {
			logger.Warnf("read rollback failed: %v", rbErr)
		}
	}()
	if err := fn(uow); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type signalView struct {
	Type   string   `json:"type"`
	Window string   `json:"window"`
	Value  *float64 `json:"value,omitempty"`
	Meta   any      `json:"meta,omitempty"`
}

func (r *Router) handleSignals(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	window := signal.Window(c.DefaultQuery("window", string(signal.Window30d)))
	if _, ok := window.Duration(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown window label"})
		return
	}
	r.read(c, func(uow store.UnitOfWork) error {
		sigs, err := uow.Signals().ListForWindow(c.Request.Context(), userID, window)
		if err != nil {
			return err
		}
		views := make([]signalView, 0, len(sigs))
		for _, s := range sigs {
			views = append(views, signalView{
				Type:   s.Type,
				Window: string(s.Window),
				Value:  s.Value,
				Meta:   s.Meta,
			})
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "window": string(window), "signals": views})
		return nil
	})
}

func (r *Router) handlePersona(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	r.read(c, func(uow store.UnitOfWork) error {
		assignment, found, err := uow.Personas().Get(c.Request.Context(), userID)
		if err != nil {
			return err
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "no persona assigned"})
			return nil
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":     assignment.UserID,
			"persona":     string(assignment.Persona),
			"criteria":    assignment.Criteria,
			"assigned_at": assignment.AssignedAt,
		})
		return nil
	})
}

func (r *Router) handleRecommendations(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	r.read(c, func(uow store.UnitOfWork) error {
		recs, err := uow.Recommendations().ListForUser(c.Request.Context(), userID)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "recommendations": recs})
		return nil
	})
}

func (r *Router) handleTrace(c *gin.Context) {
	recID := strings.TrimSpace(c.Param("id"))
	r.read(c, func(uow store.UnitOfWork) error {
		steps, err := uow.Recommendations().Trace(c.Request.Context(), recID)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "trace not found"})
			return nil
		}
		c.JSON(http.StatusOK, gin.H{"recommendation_id": recID, "steps": steps})
		return nil
	})
}

func (r *Router) handleRefreshUser(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	ctx := c.Request.Context()
	if err := r.Runner.ClearUser(ctx, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	result, err := r.Runner.RunUser(ctx, userID)
	if err != nil {
		logger.Errorf("[api] refresh user=%s failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Infof("[api] refresh user=%s persona=%s recs=%d ip=%s", userID, result.Persona, result.Recommendations, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{
		"user_id":         result.UserID,
		"persona":         string(result.Persona),
		"signal_count":    result.SignalCount,
		"recommendations": result.Recommendations,
		"consent_absent":  result.ConsentAbsent,
	})
}

func (r *Router) handleRefreshAll(c *gin.Context) {
	results, err := r.Runner.RunAll(c.Request.Context())
	if err != nil {
		logger.Errorf("[api] batch refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Infof("[api] batch refresh users=%d ip=%s", len(results), c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"users": len(results), "results": results})
}

func (r *Router) handleGrantConsent(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	uow, err := r.Store.Begin(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := uow.Consents().Set(c.Request.Context(), userID, true); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			logger.Warnf("consent rollback failed: %v", rbErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := uow.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Infof("[api] consent granted user=%s ip=%s", userID, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "consent": true})
}

func (r *Router) handleRevokeConsent(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if err := r.Runner.RevokeConsent(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Infof("[api] consent revoked user=%s ip=%s", userID, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "consent": false})
}

func (r *Router) handleAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := r.Audit.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
