package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketing/entity"
	"ticketing/issuance"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// issuanceHTTPError maps the reconciliation error taxonomy to structured
// HTTP errors callers can render.
func issuanceHTTPError(err error) error {
	var outOfStock issuance.OutOfStockError
	var orderLimit issuance.OrderLimitError
	var metadata entity.MetadataError

	switch {
	case errors.Is(err, issuance.ErrUnauthenticated):
		return jsonError(http.StatusUnauthorized, "unauthenticated", err)
	case errors.Is(err, issuance.ErrNotFound):
		return jsonError(http.StatusNotFound, "not_found", err)
	case errors.Is(err, issuance.ErrPaymentRequired):
		return jsonError(http.StatusPaymentRequired, "payment_required", err)
	case errors.Is(err, issuance.ErrTicketTypeInactive):
		return jsonError(http.StatusConflict, "ticket_type_inactive", err)
	case errors.Is(err, issuance.ErrInvalidQuantity):
		return jsonError(http.StatusBadRequest, "invalid_quantity", err)
	case errors.Is(err, issuance.ErrPaymentNotCompleted):
		return jsonError(http.StatusConflict, "payment_not_completed", err)
	case errors.As(err, &outOfStock):
		return jsonError(http.StatusConflict, "out_of_stock", outOfStock)
	case errors.As(err, &orderLimit):
		return jsonError(http.StatusUnprocessableEntity, "order_limit_exceeded", orderLimit)
	case errors.As(err, &metadata):
		return jsonError(http.StatusBadRequest, "invalid_metadata", metadata)
	}

	return &echo.HTTPError{
		Code:     http.StatusInternalServerError,
		Message:  http.StatusText(http.StatusInternalServerError),
		Internal: err,
	}
}

func jsonError(status int, code string, err error) error {
	return &echo.HTTPError{
		Code: status,
		Message: errorResponse{
			Code:  code,
			Error: err.Error(),
		},
		Internal: err,
	}
}
