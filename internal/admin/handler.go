package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sqsbackoff/internal/backoff"
	"sqsbackoff/internal/ledger"
	"sqsbackoff/internal/logger"
	"sqsbackoff/pkg/errors"
)

// ScheduleResponse describes the active backoff schedule.
type ScheduleResponse struct {
	Delays          []int              `json:"delays"`
	MaxAttempts     int                `json:"max_attempts"`
	MaxAllowedDelay int                `json:"max_allowed_delay"`
	Decisions       []backoff.Decision `json:"decisions"`
}

type DecisionResponse struct {
	DeliveryCount int `json:"delivery_count"`
	backoff.Decision
}

type Handler struct {
	schedule backoff.Schedule
	ledger   ledger.Repository
	logger   logger.Logger
}

// NewHandler builds the admin handler. repo may be nil when the ledger is
// disabled.
func NewHandler(schedule backoff.Schedule, repo ledger.Repository, log logger.Logger) *Handler {
	return &Handler{
		schedule: schedule,
		ledger:   repo,
		logger:   log,
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		schedule := v1.Group("/schedule")
		{
			schedule.GET("", h.GetSchedule)
			schedule.GET("/decisions/:delivery_count", h.GetDecision)
		}

		v1.GET("/outcomes/:id", h.GetOutcome)
	}
}

// GetSchedule godoc
// @Summary      Show the backoff schedule
// @Description  Delays, attempt limit and the decision for every delivery count up to the first exhausted one
// @Tags         schedule
// @Produce      json
// @Success      200  {object}  ScheduleResponse
// @Router       /schedule [get]
func (h *Handler) GetSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, ScheduleResponse{
		Delays:          h.schedule.Delays(),
		MaxAttempts:     h.schedule.MaxAttempts(),
		MaxAllowedDelay: h.schedule.MaxAllowedDelay(),
		Decisions:       h.schedule.Table(),
	})
}

// GetDecision godoc
// @Summary      Decide for one delivery count
// @Description  Malformed counts are treated as the first delivery, as the consumer does
// @Tags         schedule
// @Produce      json
// @Param        delivery_count  path  string  true  "ApproximateReceiveCount value"
// @Success      200  {object}  DecisionResponse
// @Router       /schedule/decisions/{delivery_count} [get]
func (h *Handler) GetDecision(c *gin.Context) {
	count := backoff.ParseDeliveryCount(c.Param("delivery_count"))
	c.JSON(http.StatusOK, DecisionResponse{
		DeliveryCount: count,
		Decision:      h.schedule.Decide(count),
	})
}

// GetOutcome godoc
// @Summary      Last recorded outcome for a message
// @Tags         outcomes
// @Produce      json
// @Param        id   path      string  true  "SQS message id"
// @Success      200  {object}  ledger.Entry
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      503  {object}  errors.ErrorResponse
// @Router       /outcomes/{id} [get]
func (h *Handler) GetOutcome(c *gin.Context) {
	if h.ledger == nil {
		h.HandleError(c, errors.ErrNotFound.WithMessage("outcome ledger is disabled"))
		return
	}

	entry, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
