package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/internal/catalog"
	"github.com/onetwoclick/rinkshots-backend/internal/mailer"
	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	"github.com/onetwoclick/rinkshots-backend/pkg/metrics"
	"github.com/onetwoclick/rinkshots-backend/pkg/storage/gcs"
	"github.com/onetwoclick/rinkshots-backend/pkg/types"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

const (
	adminSubjectPrefix = "New Order: "
	customerSubject    = "Your order was successful!"
	defaultLease       = 2 * time.Minute
)

var errNoDownloadURL = errors.New("no download url")

type photoLookup interface {
	GetPhoto(ctx context.Context, id string) (*catalog.PhotoDTO, error)
}

type attachmentFetcher interface {
	Fetch(ctx context.Context, url string) (*gcs.Object, error)
}

type cartClearer interface {
	Clear(ctx context.Context, ownerKey string, notify bool) (*cart.Snapshot, cart.Notice, error)
}

// Result is returned to the caller of FinalizeOrder.
type Result struct {
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	OrderNumber      string `json:"orderNumber,omitempty"`
}

type FinalizerParams struct {
	Ledger       Ledger
	Payments     PaymentProvider
	Photos       photoLookup
	Mailer       mailer.Dispatcher
	AdminAddress string
	From         string
	PickupNote   string
	Lease        time.Duration

	// optional
	AttachDigitals bool
	Fetcher        attachmentFetcher
	Carts          cartClearer
	Events         eventPublisher
	EventsTopic    string
	Metrics        *metrics.OrderMetrics
	Logger         *logger.Logger
	Clock          func() time.Time
}

// Finalizer turns a paid checkout session into notification emails, once.
type Finalizer struct {
	ledger       Ledger
	payments     PaymentProvider
	photos       photoLookup
	mail         mailer.Dispatcher
	adminAddress string
	from         string
	pickupNote   string
	lease        time.Duration

	attach      bool
	fetcher     attachmentFetcher
	carts       cartClearer
	events      eventPublisher
	eventsTopic string
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	now         func() time.Time

	group singleflight.Group
}

func NewFinalizer(params FinalizerParams) (*Finalizer, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session ledger required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment provider required")
	}
	if params.Photos == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "photo lookup required")
	}
	if params.Mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mail dispatcher required")
	}
	if strings.TrimSpace(params.AdminAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "admin address required")
	}
	lease := params.Lease
	if lease <= 0 {
		lease = defaultLease
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Finalizer{
		ledger:       params.Ledger,
		payments:     params.Payments,
		photos:       params.Photos,
		mail:         params.Mailer,
		adminAddress: strings.TrimSpace(params.AdminAddress),
		from:         params.From,
		pickupNote:   params.PickupNote,
		lease:        lease,
		attach:       params.AttachDigitals && params.Fetcher != nil,
		fetcher:      params.Fetcher,
		carts:        params.Carts,
		events:       params.Events,
		eventsTopic:  strings.TrimSpace(params.EventsTopic),
		metrics:      params.Metrics,
		logg:         params.Logger,
		now:          clock,
	}, nil
}

// FinalizeOrder sends the admin and customer emails for sessionID at most once.
// A session already finalized returns AlreadyProcessed without side effects. A
// session being finalized elsewhere returns CodeConflict. Any failure before the
// emails are out releases the claim so the call can be retried.
func (f *Finalizer) FinalizeOrder(ctx context.Context, sessionID string) (Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "sessionId is required")
	}
	// The shared run outlives any single caller and is bounded by the lease.
	ch := f.group.DoChan(sessionID, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.lease)
		defer cancel()
		return f.finalize(runCtx, sessionID)
	})
	select {
	case <-ctx.Done():
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "finalize order interrupted")
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

type finalized struct {
	session     *OrderSession
	items       []OrderItem
	total       string
	orderNumber string
}

func (f *Finalizer) finalize(ctx context.Context, sessionID string) (Result, error) {
	started := f.now()
	if f.logg != nil {
		ctx = f.logg.WithSessionID(ctx, sessionID)
	}

	status, err := f.ledger.Claim(ctx, sessionID, f.lease)
	if err != nil {
		f.observe(metrics.OutcomeFailed, started)
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim checkout session")
	}
	switch status {
	case ClaimDone:
		f.observe(metrics.OutcomeAlreadyProcessed, started)
		f.info(ctx, "orders.already_processed")
		return Result{AlreadyProcessed: true}, nil
	case ClaimBusy:
		f.observe(metrics.OutcomeInFlight, started)
		return Result{}, pkgerrors.New(pkgerrors.CodeConflict, "order finalization already in progress")
	}

	out, err := f.process(ctx, sessionID)
	if err != nil {
		if relErr := f.ledger.Release(ctx, sessionID); relErr != nil && f.logg != nil {
			f.logg.Error(ctx, "orders.release_failed", relErr)
		}
		f.observe(metrics.OutcomeFailed, started)
		return Result{}, err
	}
	if f.logg != nil {
		ctx = f.logg.WithOrderNumber(ctx, out.orderNumber)
	}

	// emails are out; a failed write here is logged rather than retried
	if err := f.ledger.Complete(ctx, sessionID, out.orderNumber); err != nil && f.logg != nil {
		f.logg.Error(ctx, "orders.complete_failed", err)
	}
	f.observe(metrics.OutcomeFinalized, started)
	f.info(ctx, "orders.finalized")

	f.clearCart(ctx, out.session.OwnerKey)
	f.publish(ctx, out)
	return Result{OrderNumber: out.orderNumber}, nil
}

func (f *Finalizer) process(ctx context.Context, sessionID string) (*finalized, error) {
	session, err := f.payments.Session(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve checkout session")
	}
	if session.Unpaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session is not paid")
	}

	items := ToOrderItems(session.LineItems)
	total := types.FormatAmount(types.FromMinorUnits(session.AmountTotal))
	orderNumber := NewOrderNumber(f.now())

	adminHTML, err := RenderAdminEmail(orderNumber, session.CustomerEmail, total, items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render admin email")
	}
	if err := f.mail.Send(ctx, mailer.Message{
		From:    f.from,
		To:      []string{f.adminAddress},
		Subject: adminSubjectPrefix + orderNumber,
		HTML:    adminHTML,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send admin email")
	}
	f.metrics.IncEmailSent("admin")

	if session.CustomerEmail != "" {
		if err := f.sendCustomerEmail(ctx, session.CustomerEmail, orderNumber, total, items); err != nil {
			return nil, err
		}
	}

	return &finalized{session: session, items: items, total: total, orderNumber: orderNumber}, nil
}

func (f *Finalizer) sendCustomerEmail(ctx context.Context, to, orderNumber, total string, items []OrderItem) error {
	downloads, attachments := f.digitalDownloads(ctx, items)
	email := CustomerEmail{
		OrderNumber: orderNumber,
		Total:       total,
		Downloads:   downloads,
		Attached:    len(attachments) > 0,
	}
	if hasKind(items, enums.OrderItemKindPrint) {
		email.PickupNote = f.pickupNote
	}
	html, err := RenderCustomerEmail(email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render customer email")
	}
	if err := f.mail.Send(ctx, mailer.Message{
		From:        f.from,
		To:          []string{to},
		Subject:     customerSubject,
		HTML:        html,
		Attachments: attachments,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send customer email")
	}
	f.metrics.IncEmailSent("customer")
	return nil
}

// digitalDownloads resolves a link for every digital item. Items whose photo
// or URL cannot be found are skipped and logged.
func (f *Finalizer) digitalDownloads(ctx context.Context, items []OrderItem) ([]DownloadLink, []mailer.Attachment) {
	var (
		links       []DownloadLink
		attachments []mailer.Attachment
		skipped     error
	)
	for _, item := range items {
		if item.Kind != enums.OrderItemKindDigital {
			continue
		}
		if item.PhotoID == "" {
			skipped = multierr.Append(skipped, fmt.Errorf("%q: no photo id", item.Name))
			f.metrics.IncDigitalSkipped()
			continue
		}
		photo, err := f.photos.GetPhoto(ctx, item.PhotoID)
		if err == nil && photo.ImageURL == "" {
			err = errNoDownloadURL
		}
		if err != nil {
			skipped = multierr.Append(skipped, fmt.Errorf("photo %s: %w", item.PhotoID, err))
			f.metrics.IncDigitalSkipped()
			continue
		}

		label, filename := photo.Filename, photo.Filename
		if label == "" {
			label = "Photo " + item.PhotoID
			filename = "photo.jpg"
		}
		links = append(links, DownloadLink{Label: label, URL: photo.ImageURL, Filename: filename})

		if !f.attach {
			continue
		}
		obj, err := f.fetcher.Fetch(ctx, photo.ImageURL)
		if err != nil {
			f.metrics.IncAttachmentFailed()
			skipped = multierr.Append(skipped, fmt.Errorf("attach photo %s: %w", item.PhotoID, err))
			continue
		}
		name := photo.Filename
		if name == "" {
			name = "photo-" + uuid.NewString() + ".jpg"
		}
		attachments = append(attachments, mailer.Attachment{Filename: name, ContentType: obj.ContentType, Data: obj.Data})
	}

	if f.logg != nil {
		for _, err := range multierr.Errors(skipped) {
			f.logg.Warn(ctx, "orders.digital_item_skipped: "+err.Error())
		}
	}
	return links, attachments
}

func (f *Finalizer) clearCart(ctx context.Context, ownerKey string) {
	if f.carts == nil || ownerKey == "" {
		return
	}
	if _, _, err := f.carts.Clear(ctx, ownerKey, false); err != nil && f.logg != nil {
		f.logg.Warn(f.logg.WithOwnerKey(ctx, ownerKey), "orders.cart_clear_failed: "+err.Error())
	}
}

func (f *Finalizer) publish(ctx context.Context, out *finalized) {
	if f.events == nil || f.eventsTopic == "" {
		return
	}
	payload, err := newFinalizedEnvelope(f.now(), OrderFinalizedEvent{
		SessionID:     out.session.ID,
		OrderNumber:   out.orderNumber,
		CustomerEmail: out.session.CustomerEmail,
		Total:         out.total,
		Items:         eventItems(out.items),
	})
	if err == nil {
		_, err = f.events.Publish(ctx, f.eventsTopic, payload, map[string]string{"event_type": EventOrderFinalized})
	}
	if err != nil && f.logg != nil {
		f.logg.Warn(ctx, "orders.event_publish_failed: "+err.Error())
	}
}

func (f *Finalizer) observe(outcome string, started time.Time) {
	f.metrics.ObserveFinalize(outcome, f.now().Sub(started))
}

func (f *Finalizer) info(ctx context.Context, msg string) {
	if f.logg != nil {
		f.logg.Info(ctx, msg)
	}
}

// NewOrderNumber returns "ORDER-" and the last six digits of the millisecond
// clock. Collisions are possible and accepted.
func NewOrderNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "ORDER-" + ms
}
