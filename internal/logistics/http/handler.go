package logistichttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-logistics/internal/shared"
)

// ActorHeader names the request header identifying the acting user.
const ActorHeader = "X-Actor"

// Handler exposes the logistics store over JSON.
type Handler struct {
	logger    *slog.Logger
	store     *logistics.Store
	validator *validator.Validate
	rateLimit int
}

// NewHandler builds the handler. rateLimit caps mutating requests per actor
// per minute; zero disables the limiter.
func NewHandler(logger *slog.Logger, store *logistics.Store, rateLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		store:     store,
		validator: validator.New(),
		rateLimit: rateLimit,
	}
}

// decode reads and validates the request body into dst. It writes the error
// response and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return false
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fieldErr := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fieldErr.Field(), fieldErr.Tag()))
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(msgs, "; "))
		return false
	}
	return true
}

// respondError maps store errors onto problem documents.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var lerr *logistics.Error
	if !errors.As(err, &lerr) {
		h.logger.ErrorContext(r.Context(), "logistics request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	p := httpx.ProblemDetail{
		Detail: lerr.Error(),
		Entity: lerr.Entity,
		Key:    lerr.Key,
		From:   lerr.From,
		To:     lerr.To,
	}
	switch lerr.Kind {
	case logistics.ErrValidation:
		p.Status, p.Title, p.Kind = http.StatusUnprocessableEntity, "Validation Failed", "validation"
	case logistics.ErrNotFound:
		p.Status, p.Title, p.Kind = http.StatusNotFound, "Not Found", "not_found"
	case logistics.ErrDuplicateID:
		p.Status, p.Title, p.Kind = http.StatusConflict, "Duplicate", "duplicate_id"
	case logistics.ErrInvalidTransition:
		p.Status, p.Title, p.Kind = http.StatusConflict, "Invalid Transition", "invalid_transition"
	default:
		p.Status, p.Title = http.StatusInternalServerError, "Internal Error"
	}
	httpx.WriteProblem(w, p)
}

func actor(r *http.Request) string {
	return shared.ActorFromContext(r.Context())
}

// withActor copies the actor header into the request context.
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name := strings.TrimSpace(r.Header.Get(ActorHeader)); name != "" {
			r = r.WithContext(shared.ContextWithActor(r.Context(), name))
		}
		next.ServeHTTP(w, r)
	})
}

func branchFilter(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("branch")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: branch must be a positive integer", httpx.ErrValidation)
	}
	return &id, nil
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
