package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"calora/backend/internal/analytics"
)

// getInsight always answers 200 with something displayable unless the user
// does not exist.
func (a *App) getInsight(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "userId is required")
		return
	}
	result, err := a.insights.GetInsight(c.Request.Context(), ownerID)
	if err != nil {
		writeServiceError(c, "generate insight", ownerID, err)
		return
	}
	if result.Fallback != analytics.FallbackNone {
		log.Printf(
			"insight fallback request_id=%s user_id=%s reason=%s err=%v",
			requestID(c),
			ownerID,
			result.Fallback,
			result.Err,
		)
	}
	cacheState := "miss"
	if result.CacheHit {
		cacheState = "hit"
	}
	c.Header("X-Insight-Cache", cacheState)
	c.JSON(http.StatusOK, result.Insight)
}
