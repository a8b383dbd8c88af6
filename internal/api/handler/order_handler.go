package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/brickworks/console/internal/api/metrics"
	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

type OrderHandler struct {
	flow ports.OrderFlow
	log  zerolog.Logger
}

func NewOrderHandler(flow ports.OrderFlow, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{flow: flow, log: log.With().Str("component", "order_handler").Logger()}
}

// ListOrders refreshes the order cache from the backend and returns one page.
//
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status  query     string  false  "Filter by status"  Enums(in_progress, ready_for_delivery, delivered, cancelled)
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20, max 100)"
// @Success      200     {object}  listOrdersResponse
// @Failure      401     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	var q listOrdersQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid query"})
	}
	if err := c.Validate(&q); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultPageLimit
	}

	stale := false
	if err := h.flow.Refresh(c.Request().Context()); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		metrics.OrderRefreshErrorsTotal.Inc()
		h.log.Warn().Err(err).Msg("order refresh failed, serving cached list")
		stale = true
	}

	var filtered []domain.Order
	for _, o := range h.flow.Orders() {
		if q.Status != "" && string(o.Status) != q.Status {
			continue
		}
		filtered = append(filtered, o)
	}

	resp := listOrdersResponse{
		Items: []orderResponse{},
		Total: len(filtered),
		Page:  q.Page,
		Limit: q.Limit,
		Stale: stale,
	}
	resp.TotalPages = (resp.Total + q.Limit - 1) / q.Limit

	start := (q.Page - 1) * q.Limit
	if start < len(filtered) {
		end := min(start+q.Limit, len(filtered))
		for _, o := range filtered[start:end] {
			resp.Items = append(resp.Items, toOrderResponse(o))
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// GetOrder returns a single order from the cache.
//
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        order_id  path      int  true  "Order ID"
// @Success      200       {object}  orderResponse
// @Failure      401       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /orders/{order_id} [get]
func (h *OrderHandler) GetOrder(c echo.Context) error {
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	order, ok := h.flow.Order(orderID)
	if !ok {
		return domain.ErrOrderNotFound
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// ToggleDelivery marks a detail line as delivered or not delivered.
//
// @Summary      Toggle delivery
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id   path      int                    true  "Order ID"
// @Param        detail_id  path      int                    true  "Detail line ID"
// @Param        body       body      toggleDeliveryRequest  true  "Requested delivery flag"
// @Success      200        {object}  toggleDeliveryResponse
// @Failure      400        {object}  conditionErrorResponse
// @Failure      401        {object}  conditionErrorResponse
// @Failure      403        {object}  map[string]string
// @Failure      409        {object}  conditionErrorResponse
// @Failure      422        {object}  map[string]string
// @Failure      502        {object}  conditionErrorResponse
// @Router       /orders/{order_id}/details/{detail_id}/delivery [put]
func (h *OrderHandler) ToggleDelivery(c echo.Context) error {
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	detailID, err := pathID(c, "detail_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var req toggleDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	start := time.Now()
	out := h.flow.ToggleDelivery(c.Request().Context(), orderID, detailID, *req.Delivered)

	metrics.DeliveryToggleDuration.WithLabelValues(string(out.State)).Observe(time.Since(start).Seconds())
	metrics.DeliveryTogglesTotal.WithLabelValues(string(out.State), metrics.ConditionLabel(string(out.Condition))).Inc()

	if out.Confirmed() {
		resp := toggleDeliveryResponse{Outcome: out}
		if order, ok := h.flow.Order(orderID); ok {
			or := toOrderResponse(order)
			resp.Order = &or
		}
		return c.JSON(http.StatusOK, resp)
	}

	status := conditionStatus(out)
	resp := conditionErrorResponse{
		Error:     out.Message,
		Condition: out.Condition,
		State:     string(out.State),
	}
	if status == http.StatusUnauthorized {
		resp.Redirect = "/login"
	}
	return c.JSON(status, resp)
}

// conditionStatus maps a failed outcome to an HTTP status.
func conditionStatus(out domain.Outcome) int {
	if errors.Is(out.Err, domain.ErrUnauthorized) || errors.Is(out.Err, domain.ErrSessionInactive) {
		return http.StatusUnauthorized
	}
	switch out.Condition {
	case domain.ConditionOrderCancelled, domain.ConditionInsufficientStock:
		return http.StatusConflict
	case domain.ConditionRevertNotAllowed:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return id, nil
}
