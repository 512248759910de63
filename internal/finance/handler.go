package finance

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tamweelsys/fawtara/internal/platform/httpx"
)

// Handler manages finance endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	seriesDays int
}

// NewHandler builds Handler instance. seriesDays is the default trailing
// window length when the series endpoint gets no explicit days parameter.
func NewHandler(logger *slog.Logger, service *Service, seriesDays int) *Handler {
	if seriesDays < 1 {
		seriesDays = 7
	}
	return &Handler{logger: logger, service: service, seriesDays: seriesDays}
}

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/window", h.window)
	r.Get("/daily", h.daily)
	r.Get("/series", h.series)
	r.Get("/debt", h.debtOverview)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(dayFormat, r.URL.Query().Get("start"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dayFormat, r.URL.Query().Get("end"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "end must be YYYY-MM-DD")
		return
	}
	if !start.Before(end) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "start must precede end")
		return
	}

	report, err := h.service.Window(r.Context(), start, end)
	if err != nil {
		h.logger.Error("compute window report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	day := h.service.Now().UTC()
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.Parse(dayFormat, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	report, err := h.service.DailySnapshot(r.Context(), day)
	if err != nil {
		h.logger.Error("compute daily snapshot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	days := h.seriesDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 366 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "days must be between 1 and 366")
			return
		}
		days = parsed
	}

	report, err := h.service.Series(r.Context(), days)
	if err != nil {
		h.logger.Error("compute series report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) debtOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.DebtOverview(r.Context())
	if err != nil {
		h.logger.Error("compute debt overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}
