package app

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"booking-service/internal/booking"
	"booking-service/internal/confirmation"
	"booking-service/internal/models"
)

type App struct {
	Service *booking.Service
	Logger  *slog.Logger
}

// GET /api/attendees
func (a *App) ListAttendeesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, a.Service.Attendees())
}

// GET /api/meetings/availability?attendeeType=&startDate=YYYY-MM-DD&timezone=IANA
func (a *App) AvailabilityHandler(c *gin.Context) {
	dateStr := c.Query("startDate")
	if dateStr == "" {
		a.writeError(c, models.ErrInvalidRequest, "startDate required (YYYY-MM-DD)")
		return
	}
	date, err := models.ParseDate(dateStr)
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	slots, err := a.Service.Availability(c.Request.Context(), c.Query("attendeeType"), date, c.DefaultQuery("timezone", "UTC"))
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// POST /api/meetings
func (a *App) CreateMeetingHandler(c *gin.Context) {
	var req models.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, models.ErrInvalidRequest, err.Error())
		return
	}
	start, err := time.Parse(time.RFC3339, req.PreferredDateTime)
	if err != nil {
		a.writeError(c, models.ErrInvalidRequest, "invalid preferredDateTime, expected RFC3339")
		return
	}

	b, err := a.Service.Book(c.Request.Context(), models.BookingRequest{
		AttendeeType: req.AttendeeType,
		Lead: models.Lead{
			Name:  req.AttendeeName,
			Email: req.AttendeeEmail,
			Phone: req.AttendeePhone,
		},
		Start:           start,
		Timezone:        req.Timezone,
		DurationMinutes: req.Duration,
	})
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /api/meetings/:id
func (a *App) GetMeetingHandler(c *gin.Context) {
	b, err := a.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/meetings/:id/ics
func (a *App) MeetingICSHandler(c *gin.Context) {
	b, err := a.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	data, err := confirmation.ICS(b.Meeting)
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+confirmation.Filename(b.Meeting)+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// GET /api/meetings?attendeeType=&from=ISO&to=ISO
func (a *App) ListMeetingsHandler(c *gin.Context) {
	var from, to time.Time
	var err error
	if s := c.Query("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			a.writeError(c, models.ErrInvalidRequest, "invalid from")
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			a.writeError(c, models.ErrInvalidRequest, "invalid to")
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		a.writeError(c, models.ErrInvalidRequest, "from must be before to")
		return
	}

	meetings, err := a.Service.List(c.Request.Context(), c.Query("attendeeType"), from, to)
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	c.JSON(http.StatusOK, meetings)
}

// DELETE /api/meetings/:id
func (a *App) CancelMeetingHandler(c *gin.Context) {
	m, err := a.Service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	a.Logger.Info("Meeting cancelled by admin", "meetingID", m.ID, "actor", actor(c))
	c.JSON(http.StatusOK, m)
}

// POST /api/meetings/:id/calendar-event
func (a *App) RetryCalendarEventHandler(c *gin.Context) {
	b, err := a.Service.RetryCalendarEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err, "")
		return
	}
	a.Logger.Info("Invite retry requested", "meetingID", b.ID, "actor", actor(c), "pending", b.CalendarPending)
	c.JSON(http.StatusOK, b)
}

func (a *App) writeError(c *gin.Context, err error, msg string) {
	if msg == "" {
		msg = err.Error()
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.Logger.Error("Request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.JSON(status, models.ErrorResponse{Error: msg, Code: models.Code(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidAttendee),
		errors.Is(err, models.ErrInvalidTimezone),
		errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, models.ErrOutsideWorkingHours),
		errors.Is(err, models.ErrInPast):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrSlotConflict),
		errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
