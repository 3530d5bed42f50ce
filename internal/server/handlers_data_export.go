package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"calora/backend/internal/analytics"
)

func (a *App) exportAnalytics(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "userId is required")
		return
	}
	months, err := queryInt(c, "months", analytics.DefaultReportMonths)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := a.svc.BuildReport(c.Request.Context(), ownerID, analytics.ReportRequest{
		Months: months,
		From:   c.Query("from"),
		To:     c.Query("to"),
		Format: c.DefaultQuery("format", analytics.FormatCSV),
	})
	if err != nil {
		writeServiceError(c, "build analytics report", ownerID, err)
		return
	}

	if report.Format != analytics.FormatCSV {
		c.JSON(http.StatusOK, report)
		return
	}

	var out bytes.Buffer
	if err := analytics.WriteReportCSV(&out, report, a.svc.Location()); err != nil {
		writeServiceError(c, "write analytics CSV", ownerID, err)
		return
	}

	filename := sanitizeFilename(report.FileName, "analytics") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.String(http.StatusOK, out.String())
}
