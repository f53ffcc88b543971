package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"maintenance-tracker/internal/logging"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/status"
	"maintenance-tracker/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	machines store.Store
	themes   *store.ThemeStore
	subs     *store.SubscriptionStore
	webpush  *webpush.Options
	loc      *time.Location
	now      status.Clock
	log      *zap.Logger
}

type Option func(*Handler)

// WithClock replaces the clock used to derive statuses.
func WithClock(now status.Clock) Option { return func(h *Handler) { h.now = now } }

// WithLocation sets the timezone that decides the current calendar day.
func WithLocation(loc *time.Location) Option { return func(h *Handler) { h.loc = loc } }

func WithLogger(l *zap.Logger) Option { return func(h *Handler) { h.log = logging.OrNop(l) } }

// NewHandler creates a new API handler.
func NewHandler(machines store.Store, themes *store.ThemeStore, subs *store.SubscriptionStore, webpushOptions *webpush.Options, opts ...Option) *Handler {
	h := &Handler{
		machines: machines,
		themes:   themes,
		subs:     subs,
		webpush:  webpushOptions,
		loc:      time.Local,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) today() model.Date {
	return status.Today(h.now(), h.loc)
}

// fail maps store errors onto HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
