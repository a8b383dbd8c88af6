package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

type stubOrderFlow struct {
	orders     []domain.Order
	refreshErr error
	toggleFn   func(orderID, detailID int64, delivered bool) domain.Outcome
}

func (s *stubOrderFlow) Refresh(ctx context.Context) error { return s.refreshErr }

func (s *stubOrderFlow) Orders() []domain.Order { return domain.CloneOrders(s.orders) }

func (s *stubOrderFlow) Order(orderID int64) (domain.Order, bool) {
	for _, o := range s.orders {
		if o.ID == orderID {
			return o.Clone(), true
		}
	}
	return domain.Order{}, false
}

func (s *stubOrderFlow) ToggleDelivery(ctx context.Context, orderID, detailID int64, delivered bool) domain.Outcome {
	return s.toggleFn(orderID, detailID, delivered)
}

func manyOrders() []domain.Order {
	var orders []domain.Order
	for i := int64(1); i <= 5; i++ {
		status := domain.OrderInProgress
		if i%2 == 0 {
			status = domain.OrderCancelled
		}
		orders = append(orders, domain.Order{
			ID:     i,
			Status: status,
			Lines:  []domain.DetailLine{{ID: i * 10}},
		})
	}
	return orders
}

func TestOrderHandler_ListOrders(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		wantIDs   []int64
		wantTotal int
		wantPages int
	}{
		{"default page", "", []int64{1, 2, 3, 4, 5}, 5, 1},
		{"status filter", "?status=in_progress", []int64{1, 3, 5}, 3, 1},
		{"second page", "?limit=2&page=2", []int64{3, 4}, 5, 3},
		{"past the end", "?limit=2&page=9", []int64{}, 5, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			h := NewOrderHandler(&stubOrderFlow{orders: manyOrders()}, zerolog.Nop())

			req := httptest.NewRequest(http.MethodGet, "/orders"+tc.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := h.ListOrders(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			var resp listOrdersResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Total != tc.wantTotal || resp.TotalPages != tc.wantPages {
				t.Fatalf("total=%d pages=%d, want %d/%d", resp.Total, resp.TotalPages, tc.wantTotal, tc.wantPages)
			}
			if len(resp.Items) != len(tc.wantIDs) {
				t.Fatalf("got %d items, want %d", len(resp.Items), len(tc.wantIDs))
			}
			for i, id := range tc.wantIDs {
				if resp.Items[i].ID != id {
					t.Fatalf("item %d: got order %d, want %d", i, resp.Items[i].ID, id)
				}
			}
		})
	}
}

func TestOrderHandler_ListOrders_InvalidQuery(t *testing.T) {
	for _, query := range []string{"?status=lost", "?limit=101", "?page=0&limit=0&status=bogus"} {
		e := newEcho()
		h := NewOrderHandler(&stubOrderFlow{}, zerolog.Nop())

		req := httptest.NewRequest(http.MethodGet, "/orders"+query, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := h.ListOrders(c); err != nil {
			t.Fatalf("%s: handler error: %v", query, err)
		}
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", query, rec.Code)
		}
	}
}

func TestOrderHandler_ListOrders_StaleOnRefreshError(t *testing.T) {
	e := newEcho()
	flow := &stubOrderFlow{
		orders:     manyOrders()[:1],
		refreshErr: &ports.APIError{Status: http.StatusServiceUnavailable},
	}
	h := NewOrderHandler(flow, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListOrders(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp listOrdersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Stale || resp.Total != 1 {
		t.Fatalf("expected stale cached list, got %+v", resp)
	}
}

func TestOrderHandler_ListOrders_Unauthorized(t *testing.T) {
	e := newEcho()
	flow := &stubOrderFlow{refreshErr: domain.ErrUnauthorized}
	h := NewOrderHandler(flow, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListOrders(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestOrderHandler_GetOrder(t *testing.T) {
	e := newEcho()
	h := NewOrderHandler(&stubOrderFlow{orders: manyOrders()}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("order_id")
	c.SetParamValues("3")

	if err := h.GetOrder(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != 3 || resp.PendingLines != 1 {
		t.Fatalf("unexpected order: %+v", resp)
	}
}

func TestOrderHandler_GetOrder_NotFound(t *testing.T) {
	e := newEcho()
	h := NewOrderHandler(&stubOrderFlow{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("order_id")
	c.SetParamValues("99")

	if err := h.GetOrder(c); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func toggleContext(e *echo.Echo, orderID, detailID, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("order_id", "detail_id")
	c.SetParamValues(orderID, detailID)
	return c, rec
}

func TestOrderHandler_ToggleDelivery_Confirmed(t *testing.T) {
	e := newEcho()
	flow := &stubOrderFlow{orders: manyOrders()}
	flow.toggleFn = func(orderID, detailID int64, delivered bool) domain.Outcome {
		if orderID != 1 || detailID != 10 || !delivered {
			t.Fatalf("unexpected args: %d %d %v", orderID, detailID, delivered)
		}
		return domain.Outcome{OrderID: 1, DetailID: 10, Requested: true, State: domain.MutationConfirmed, OrderCompleted: true}
	}
	h := NewOrderHandler(flow, zerolog.Nop())

	c, rec := toggleContext(e, "1", "10", `{"delivered":true}`)
	if err := h.ToggleDelivery(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["state"] != "confirmed" || resp["order_completed"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}
	if _, ok := resp["order"].(map[string]any); !ok {
		t.Fatalf("expected the refreshed order in the response: %v", resp)
	}
}

func TestOrderHandler_ToggleDelivery_Failures(t *testing.T) {
	cases := []struct {
		name         string
		out          domain.Outcome
		wantStatus   int
		wantRedirect bool
	}{
		{
			"cancelled",
			domain.Outcome{State: domain.MutationRejected, Condition: domain.ConditionOrderCancelled},
			http.StatusConflict, false,
		},
		{
			"stock",
			domain.Outcome{State: domain.MutationRolledBack, Condition: domain.ConditionInsufficientStock},
			http.StatusConflict, false,
		},
		{
			"revert",
			domain.Outcome{State: domain.MutationRolledBack, Condition: domain.ConditionRevertNotAllowed},
			http.StatusBadRequest, false,
		},
		{
			"unknown",
			domain.Outcome{State: domain.MutationRolledBack, Condition: domain.ConditionUnknownFailure, Err: errors.New("boom")},
			http.StatusBadGateway, false,
		},
		{
			"backend 401",
			domain.Outcome{State: domain.MutationRolledBack, Condition: domain.ConditionUnknownFailure, Err: domain.ErrUnauthorized},
			http.StatusUnauthorized, true,
		},
		{
			"session ended",
			domain.Outcome{State: domain.MutationRejected, Condition: domain.ConditionUnknownFailure, Err: domain.ErrSessionInactive},
			http.StatusUnauthorized, true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			flow := &stubOrderFlow{toggleFn: func(int64, int64, bool) domain.Outcome {
				out := tc.out
				out.Message = out.Condition.Message()
				return out
			}}
			h := NewOrderHandler(flow, zerolog.Nop())

			c, rec := toggleContext(e, "2", "20", `{"delivered":false}`)
			if err := h.ToggleDelivery(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}

			var resp conditionErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Condition != tc.out.Condition {
				t.Fatalf("condition = %q, want %q", resp.Condition, tc.out.Condition)
			}
			if resp.Error == "" {
				t.Fatalf("expected a user-facing message")
			}
			if (resp.Redirect != "") != tc.wantRedirect {
				t.Fatalf("redirect = %q, want redirect %v", resp.Redirect, tc.wantRedirect)
			}
		})
	}
}

func TestOrderHandler_ToggleDelivery_BadRequest(t *testing.T) {
	cases := []struct {
		name       string
		orderID    string
		body       string
		wantStatus int
	}{
		{"non numeric id", "abc", `{"delivered":true}`, http.StatusBadRequest},
		{"missing flag", "1", `{}`, http.StatusUnprocessableEntity},
		{"malformed body", "1", `{`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			flow := &stubOrderFlow{toggleFn: func(int64, int64, bool) domain.Outcome {
				t.Fatalf("flow should not be called")
				return domain.Outcome{}
			}}
			h := NewOrderHandler(flow, zerolog.Nop())

			c, rec := toggleContext(e, tc.orderID, "10", tc.body)
			if err := h.ToggleDelivery(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}
