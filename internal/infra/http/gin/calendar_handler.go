package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"whistleinn/internal/app/dto"
	calendarapp "whistleinn/internal/app/handlers/calendar"
	"whistleinn/internal/app/queries"
	"whistleinn/internal/infra/ical"
)

type CalendarHTTP interface {
	Export(c *gin.Context)
}

type CalendarHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h CalendarHandler) Export(c *gin.Context) {
	export, err := queries.Ask[calendarapp.ExportQuery, dto.CalendarExport](c.Request.Context(), h.Queries, calendarapp.ExportQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	body := ical.Build(export)
	c.Header("Content-Disposition", `attachment; filename="whistleinn.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

var _ CalendarHTTP = CalendarHandler{}
