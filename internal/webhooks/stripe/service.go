package stripewebhook

import (
	"context"

	"github.com/onetwoclick/rinkshots-backend/internal/orders"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

type orderFinalizer interface {
	FinalizeOrder(ctx context.Context, sessionID string) (orders.Result, error)
}

type ServiceParams struct {
	Finalizer orderFinalizer
	Logger    *logger.Logger
}

// Service finalizes orders from Stripe Checkout events. It shares the
// finalizer with the browser's finalize-order call, so whichever arrives
// first sends the emails and the other sees an already processed session.
type Service struct {
	finalizer orderFinalizer
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Finalizer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order finalizer required")
	}
	return &Service{finalizer: params.Finalizer, logg: params.Logger}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		// delayed payment methods finish with async_payment_succeeded
		if event.GetObjectValue("payment_status") == string(stripe.CheckoutSessionPaymentStatusUnpaid) {
			s.debug(ctx, "stripe checkout session completed unpaid; awaiting async payment")
			return nil
		}
		return s.finalize(ctx, event)
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return s.finalize(ctx, event)
	default:
		return nil
	}
}

func (s *Service) finalize(ctx context.Context, event *stripe.Event) error {
	sessionID := event.GetObjectValue("id")
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	result, err := s.finalizer.FinalizeOrder(ctx, sessionID)
	if err != nil {
		return err
	}
	if result.AlreadyProcessed {
		s.debug(ctx, "stripe checkout session already finalized")
	}
	return nil
}

func (s *Service) debug(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Debug(ctx, msg)
	}
}
