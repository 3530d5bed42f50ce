package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"calora/backend/internal/analytics"
	"calora/backend/internal/config"
)

const (
	requestIDHeader  = "X-Request-ID"
	requestIDKey     = "requestID"
	authSubjectKey   = "authSubject"
	maxRequestIDSize = 128
)

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Analytics *analytics.Service
	Insights  *analytics.InsightGenerator
	DB        Pinger
}

type App struct {
	cfg      config.Config
	svc      *analytics.Service
	insights *analytics.InsightGenerator
	db       Pinger
}

func New(cfg config.Config, deps Deps) *App {
	return &App{
		cfg:      cfg,
		svc:      deps.Analytics,
		insights: deps.Insights,
		db:       deps.DB,
	}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware(), gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", a.health)

	api := router.Group(a.cfg.APIPrefix)
	api.GET("/health", a.health)
	if a.cfg.AuthRequired {
		api.Use(a.authMiddleware())
	}

	api.GET("/dashboard/summary/:userId", a.dashboardSummary)
	api.GET("/dashboard/trend/:userId", a.dashboardTrend)
	api.GET("/analytics/weekly/:userId", a.weeklyStats)
	api.GET("/analytics/daily/:userId", a.dailyRange)
	api.GET("/ai/insights/:userId", a.getInsight)
	api.GET("/exports/analytics/:userId", a.exportAnalytics)

	return router
}

func (a *App) health(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"service": "calora-api",
	}
	if a.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.Ping(ctx); err != nil {
			log.Printf("health check database ping failed err=%v", err)
			body["status"] = "degraded"
			body["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}
	c.JSON(http.StatusOK, body)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDSize {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// authMiddleware accepts a bearer token whose subject is the :userId being read.
func (a *App) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if token.Method == nil || token.Method.Alg() != a.cfg.JWTAlgorithm {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(a.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(c, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(c, http.StatusUnauthorized, "Invalid token payload")
			return
		}
		if a.cfg.JWTAudience != "" && !claimHasAudience(claims["aud"], a.cfg.JWTAudience) {
			writeError(c, http.StatusUnauthorized, "Invalid token audience")
			return
		}
		if a.cfg.JWTIssuer != "" {
			issuer, _ := claims["iss"].(string)
			if issuer != a.cfg.JWTIssuer {
				writeError(c, http.StatusUnauthorized, "Invalid token issuer")
				return
			}
		}
		sub, _ := claims["sub"].(string)
		sub = strings.TrimSpace(sub)
		if sub == "" {
			writeError(c, http.StatusUnauthorized, "Token subject missing")
			return
		}
		if owner := strings.TrimSpace(c.Param("userId")); owner != "" && owner != sub {
			writeError(c, http.StatusForbidden, "Token does not grant access to this user")
			return
		}

		c.Set(authSubjectKey, sub)
		c.Next()
	}
}

func claimHasAudience(value any, audience string) bool {
	switch v := value.(type) {
	case string:
		return v == audience
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == audience {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == audience {
				return true
			}
		}
	}
	return false
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// writeServiceError maps analytics errors to HTTP. Anything unexpected is
// logged and hidden behind a generic detail.
func writeServiceError(c *gin.Context, action, ownerID string, err error) {
	switch {
	case errors.Is(err, analytics.ErrUserNotFound):
		writeError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, analytics.ErrInvalidWindow):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("%s failed request_id=%s user_id=%s err=%v", action, requestID(c), ownerID, err)
		writeError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}
