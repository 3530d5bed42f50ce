package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultTrendDays = 7

func (a *App) dashboardSummary(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "userId is required")
		return
	}
	summary, err := a.svc.BuildToday(c.Request.Context(), ownerID)
	if err != nil {
		writeServiceError(c, "build dashboard summary", ownerID, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *App) dashboardTrend(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "userId is required")
		return
	}
	days, err := queryInt(c, "days", defaultTrendDays)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	points, err := a.svc.BuildTrend(c.Request.Context(), ownerID, days)
	if err != nil {
		writeServiceError(c, "build calorie trend", ownerID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

func (a *App) weeklyStats(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "userId is required")
		return
	}
	stats, err := a.svc.BuildWeeklyStats(c.Request.Context(), ownerID)
	if err != nil {
		writeServiceError(c, "build weekly stats", ownerID, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *App) dailyRange(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "userId is required")
		return
	}
	summary, err := a.svc.BuildRange(c.Request.Context(), ownerID, c.Query("from"), c.Query("to"))
	if err != nil {
		writeServiceError(c, "build daily range", ownerID, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
