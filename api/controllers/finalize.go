package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/api/responses"
	"github.com/onetwoclick/rinkshots-backend/api/validators"
	"github.com/onetwoclick/rinkshots-backend/internal/orders"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

type OrderFinalizer interface {
	FinalizeOrder(ctx context.Context, sessionID string) (orders.Result, error)
}

type finalizeOrderRequest struct {
	SessionID      string `json:"sessionId"`
	SessionIDSnake string `json:"session_id"`
}

func (r finalizeOrderRequest) sessionID() string {
	if id := strings.TrimSpace(r.SessionID); id != "" {
		return id
	}
	return strings.TrimSpace(r.SessionIDSnake)
}

type finalizeOrderResponse struct {
	Success          bool   `json:"success"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	OrderNumber      string `json:"orderNumber,omitempty"`
}

// FinalizeOrder is called by the payment success page. Repeated calls for the
// same session succeed without sending email again.
func FinalizeOrder(svc OrderFinalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order finalizer unavailable"))
			return
		}

		var payload finalizeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID := payload.sessionID()
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sessionId is required"))
			return
		}

		result, err := svc.FinalizeOrder(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, finalizeOrderResponse{
			Success:          true,
			AlreadyProcessed: result.AlreadyProcessed,
			OrderNumber:      result.OrderNumber,
		})
	}
}
