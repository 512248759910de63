package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tamweelsys/fawtara/internal/platform/httpx"
	"github.com/tamweelsys/fawtara/internal/shared"
)

// Handler manages billing endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/grouped-orders", h.listGroupedOrders)
	r.Post("/grouped-orders", h.createGroupedOrder)
	r.Get("/grouped-orders/{id}", h.getGroupedOrder)
	r.Delete("/grouped-orders/{id}", h.deleteGroupedOrder)
	r.Post("/grouped-orders/{id}/payments", h.applyPayment)
	r.Patch("/grouped-orders/{id}/status", h.updateStatus)
	r.Put("/grouped-orders/{id}/sub-orders/{subID}/representative", h.assignRepresentative)
	r.Get("/tracking/{trackingID}", h.trackShipment)
	r.Get("/users/{userID}/summary", h.userOrderSummary)
}

func (h *Handler) listGroupedOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListGroupedOrders(r.Context())
	if err != nil {
		h.logger.Error("list grouped orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if orders == nil {
		orders = []GroupedOrder{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) createGroupedOrder(w http.ResponseWriter, r *http.Request) {
	var req createGroupedOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateGroupedOrderInput{
		InvoiceName:      req.InvoiceName,
		AssignedUserID:   req.AssignedUserID,
		AssignedUserName: req.AssignedUserName,
	}
	for _, so := range req.SubOrders {
		input.SubOrders = append(input.SubOrders, CreateSubOrderInput{
			CustomerName:    so.CustomerName,
			CustomerPhone:   so.CustomerPhone,
			CustomerAddress: so.CustomerAddress,
			ItemDescription: so.ItemDescription,
			TrackingID:      so.TrackingID,
			SellingPriceLYD: so.SellingPriceLYD,
		})
	}

	g, err := h.service.CreateGroupedOrder(r.Context(), input)
	if err != nil {
		h.logger.Error("create grouped order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, g)
}

func (h *Handler) getGroupedOrder(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.GetGroupedOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, g)
}

func (h *Handler) deleteGroupedOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteGroupedOrder(r.Context(), id); err != nil {
		h.logger.Error("delete grouped order", slog.Any("error", err), slog.String("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	var req applyPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	g, record, err := h.service.ApplyPayment(r.Context(), id, req.SubOrderID, req.Amount, req.Note)
	if err != nil {
		h.logger.Error("apply payment",
			slog.Any("error", err),
			slog.String("grouped_order_id", id),
			slog.String("sub_order_id", req.SubOrderID))
		httpx.RespondError(w, err)
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	h.logger.Info("payment applied",
		slog.String("grouped_order_id", id),
		slog.String("sub_order_id", req.SubOrderID),
		slog.Float64("amount", req.Amount),
		slog.String("actor", actor.UserID))
	httpx.JSON(w, http.StatusOK, paymentResponse{GroupedOrder: g, Transaction: record})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	g, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), OrderStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, g)
}

func (h *Handler) assignRepresentative(w http.ResponseWriter, r *http.Request) {
	var req assignRepresentativeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}

	g, err := h.service.AssignRepresentative(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "subID"), req.Representative)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, g)
}

func (h *Handler) trackShipment(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.TrackShipment(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) userOrderSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.UserOrderSummary(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
