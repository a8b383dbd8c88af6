package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

// Structured codes take precedence over message inspection.
var codeConditions = map[string]domain.Condition{
	"ORDER_CANCELLED":        domain.ConditionOrderCancelled,
	"PEDIDO_CANCELADO":       domain.ConditionOrderCancelled,
	"INSUFFICIENT_STOCK":     domain.ConditionInsufficientStock,
	"STOCK_INSUFICIENTE":     domain.ConditionInsufficientStock,
	"REVERT_NOT_ALLOWED":     domain.ConditionRevertNotAllowed,
	"REVERSION_NO_PERMITIDA": domain.ConditionRevertNotAllowed,
}

// Keyword sets for backends that only send prose. Matching is
// case-insensitive containment.
var (
	cancelledKeywords = []string{"cancelad", "cancelled", "canceled"}
	stockKeywords     = []string{"stock", "inventario", "existencia", "inventory"}
	revertKeywords    = []string{"revert", "desmarcar", "administrador", "administrator", "horas", "hours", "plazo", "window"}
)

const sessionEndedMessage = "your session has ended; sign in again"

// Classify maps a failed toggle to a condition and a user-facing message.
func Classify(err error) (domain.Condition, string) {
	if err == nil {
		return domain.ConditionNone, ""
	}
	if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrSessionInactive) {
		return domain.ConditionUnknownFailure, sessionEndedMessage
	}

	var apiErr *ports.APIError
	if !errors.As(err, &apiErr) {
		return domain.ConditionUnknownFailure, domain.ConditionUnknownFailure.Message()
	}

	if c, ok := codeConditions[strings.ToUpper(strings.TrimSpace(apiErr.Code))]; ok {
		return c, c.Message()
	}

	msg := strings.ToLower(apiErr.Message)
	switch {
	case containsAny(msg, cancelledKeywords):
		return domain.ConditionOrderCancelled, domain.ConditionOrderCancelled.Message()
	case apiErr.Status == http.StatusConflict && containsAny(msg, stockKeywords):
		return domain.ConditionInsufficientStock, domain.ConditionInsufficientStock.Message()
	case apiErr.Status == http.StatusBadRequest && containsAny(msg, revertKeywords):
		return domain.ConditionRevertNotAllowed, domain.ConditionRevertNotAllowed.Message()
	}

	if apiErr.Message != "" {
		return domain.ConditionUnknownFailure, apiErr.Message
	}
	return domain.ConditionUnknownFailure, domain.ConditionUnknownFailure.Message()
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
