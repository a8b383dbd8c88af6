package handler

import "github.com/brickworks/console/internal/core/domain"

const defaultPageLimit = 20

type listOrdersQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=in_progress ready_for_delivery delivered cancelled"`
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type orderResponse struct {
	domain.Order
	PendingLines int `json:"pending_lines"`
}

type listOrdersResponse struct {
	Items      []orderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	// Stale is set when the backend refresh failed and the cached list is served.
	Stale bool `json:"stale,omitempty"`
}

type toggleDeliveryRequest struct {
	Delivered *bool `json:"delivered" validate:"required"`
}

type toggleDeliveryResponse struct {
	domain.Outcome
	Order *orderResponse `json:"order,omitempty"`
}

type conditionErrorResponse struct {
	Error     string           `json:"error"`
	Condition domain.Condition `json:"condition"`
	State     string           `json:"state"`
	Redirect  string           `json:"redirect,omitempty"`
}

func toOrderResponse(o domain.Order) orderResponse {
	if o.Lines == nil {
		o.Lines = []domain.DetailLine{}
	}
	return orderResponse{Order: o, PendingLines: o.PendingLines()}
}
