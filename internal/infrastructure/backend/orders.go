package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

var (
	_ ports.OrderAPI    = (*Client)(nil)
	_ ports.TokenIssuer = (*Client)(nil)
)

type orderDTO struct {
	ID       int64       `json:"id"`
	Estado   string      `json:"estado"`
	Detalles []detailDTO `json:"detalles"`
}

type detailDTO struct {
	ID             int64   `json:"id"`
	Producto       string  `json:"producto"`
	Cantidad       float64 `json:"cantidad"`
	PrecioUnitario float64 `json:"precioUnitario"`
	FechaEntrega   string  `json:"fechaEntrega"`
	Entregado      bool    `json:"entregado"`
}

type toggleRequest struct {
	Entregado bool `json:"entregado"`
}

type toggleResponse struct {
	PedidoCompletado bool `json:"pedidoCompletado"`
}

var orderStatuses = map[string]domain.OrderStatus{
	"EN_PROCESO":         domain.OrderInProgress,
	"LISTO_PARA_ENTREGA": domain.OrderReadyForDelivery,
	"ENTREGADO":          domain.OrderDelivered,
	"CANCELADO":          domain.OrderCancelled,
}

// ListOrders fetches every order with its lines.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var dtos []orderDTO
	if err := c.do(ctx, http.MethodGet, "/pedidos", nil, &dtos); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(dtos))
	for _, d := range dtos {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

// ToggleDelivery sets the delivered flag of one order line.
func (c *Client) ToggleDelivery(ctx context.Context, orderID, detailID int64, delivered bool) (ports.ToggleResult, error) {
	path := fmt.Sprintf("/pedidos/%d/detalles/%d/entregado", orderID, detailID)
	var out toggleResponse
	if err := c.do(ctx, http.MethodPatch, path, toggleRequest{Entregado: delivered}, &out); err != nil {
		return ports.ToggleResult{}, err
	}
	return ports.ToggleResult{OrderCompleted: out.PedidoCompletado}, nil
}

func (d orderDTO) toDomain() domain.Order {
	o := domain.Order{
		ID:     d.ID,
		Status: parseStatus(d.Estado),
		Lines:  make([]domain.DetailLine, 0, len(d.Detalles)),
	}
	for _, l := range d.Detalles {
		o.Lines = append(o.Lines, domain.DetailLine{
			ID:         l.ID,
			ProductRef: l.Producto,
			Quantity:   l.Cantidad,
			UnitPrice:  l.PrecioUnitario,
			DueDate:    parseDate(l.FechaEntrega),
			Delivered:  l.Entregado,
		})
	}
	return o
}

// parseStatus accepts "LISTO_PARA_ENTREGA", "Listo para entrega" and the like.
// Unrecognised values are kept, lower-cased, so they never read as cancelled.
func parseStatus(raw string) domain.OrderStatus {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if s, ok := orderStatuses[key]; ok {
		return s
	}
	return domain.OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
}

func parseDate(raw string) time.Time {
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
