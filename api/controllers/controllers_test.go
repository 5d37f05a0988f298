package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/internal/catalog"
	"github.com/onetwoclick/rinkshots-backend/internal/checkout"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	"github.com/onetwoclick/rinkshots-backend/internal/orders"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
)

type stubPhotos map[string]*catalog.PhotoDTO

func (s stubPhotos) GetPhoto(_ context.Context, id string) (*catalog.PhotoDTO, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
}

var testPrices = cart.PriceList{Digital: decimal.RequireFromString("4.00"), Print: decimal.RequireFromString("8.00")}

func newCartService(t *testing.T) cart.Service {
	t.Helper()
	svc, err := cart.NewService(cart.ServiceParams{
		Persister: cart.NewMemoryPersister(),
		Photos: stubPhotos{
			"p1": {ID: "p1", Filename: "IMG_1.jpg", DisplayName: "IMG_1.jpg", ImageURL: "https://cdn.example.com/p1.jpg"},
		},
		Prices: testPrices,
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return svc
}

func withIdentity(req *http.Request, id identity.Identity) *http.Request {
	return req.WithContext(identity.WithIdentity(req.Context(), id))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestCartAddAndGet(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	guest := identity.Identity{GuestID: identity.NewGuestID()}

	body := `{"photoId":"p1","purchaseType":"Print","options":{"type":"standard_print"}}`
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), guest)
	rec := httptest.NewRecorder()
	AddCartItem(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var added cartResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &added); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(added.Cart.Items) != 1 || added.Cart.Items[0].ID != "p1-print-standard_print" {
		t.Fatalf("unexpected items %+v", added.Cart.Items)
	}
	if !added.Cart.Items[0].Price.Equal(testPrices.Print) {
		t.Fatalf("expected configured print price, got %s", added.Cart.Items[0].Price)
	}
	if added.Notice == nil || added.Notice.Kind != cart.NoticeItemAdded {
		t.Fatalf("expected item added notice, got %+v", added.Notice)
	}

	getReq := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), guest)
	getRec := httptest.NewRecorder()
	GetCart(svc, nil).ServeHTTP(getRec, getReq)
	var got cartResponse
	if err := json.Unmarshal(decodeEnvelope(t, getRec).Data, &got); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if got.Cart.Count != 1 {
		t.Fatalf("expected persisted cart, got %+v", got.Cart)
	}
}

func TestCartRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"photoId":"p1","purchaseType":"digital","price":0.01}`)), identity.Identity{GuestID: identity.NewGuestID()})
	rec := httptest.NewRecorder()
	AddCartItem(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected client price to be rejected, got %d", rec.Code)
	}
}

func TestCartUpdateAndRemove(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	guest := identity.Identity{GuestID: identity.NewGuestID()}
	if _, _, err := svc.AddItem(context.Background(), guest.OwnerKey(), cart.AddItemInput{PhotoID: "p1", PurchaseType: "digital"}); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	router := chi.NewRouter()
	router.Patch("/api/v1/cart/items/{cartItemId}", UpdateCartItem(svc, nil))
	router.Delete("/api/v1/cart/items/{cartItemId}", RemoveCartItem(svc, nil))

	req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/p1-digital", strings.NewReader(`{"quantity":3}`)), guest)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	snapshot, _ := svc.Get(context.Background(), guest.OwnerKey())
	if snapshot.Count != 3 {
		t.Fatalf("expected quantity 3, got %d", snapshot.Count)
	}

	req = withIdentity(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/p1-digital", strings.NewReader(`{}`)), guest)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected missing quantity rejected, got %d", rec.Code)
	}

	req = withIdentity(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/p1-digital", nil), guest)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	snapshot, _ = svc.Get(context.Background(), guest.OwnerKey())
	if len(snapshot.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", snapshot.Items)
	}
}

func TestCartRequiresIdentity(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	GetCart(newCartService(t), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMergeCart(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	guestID := identity.NewGuestID()
	if _, _, err := svc.AddItem(context.Background(), identity.GuestOwnerKey(guestID), cart.AddItemInput{PhotoID: "p1", PurchaseType: "digital"}); err != nil {
		t.Fatalf("seed guest cart: %v", err)
	}

	rec := httptest.NewRecorder()
	MergeCart(svc, nil).ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil), identity.Identity{GuestID: guestID}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected guests to be refused, got %d", rec.Code)
	}

	user := identity.Identity{Email: "buyer@example.com", GuestID: guestID}
	rec = httptest.NewRecorder()
	MergeCart(svc, nil).ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	snapshot, _ := svc.Get(context.Background(), user.OwnerKey())
	if snapshot.Count != 1 {
		t.Fatalf("expected merged item in user cart, got %+v", snapshot)
	}
}

type fakeSessions struct {
	created []*stripe.CheckoutSessionParams
}

func (f *fakeSessions) Create(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = append(f.created, params)
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (f *fakeSessions) Get(context.Context, string) (*stripe.CheckoutSession, error) {
	return nil, nil
}

func (f *fakeSessions) ListLineItems(context.Context, string) ([]*stripe.LineItem, error) {
	return nil, nil
}

func newCheckoutService(t *testing.T, sessions *fakeSessions, carts cart.Service) checkout.Service {
	t.Helper()
	prices := testPrices
	svc, err := checkout.NewService(checkout.ServiceParams{
		Sessions:   sessions,
		Carts:      carts,
		Prices:     &prices,
		SuccessURL: "https://shots.example.com/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shots.example.com/cart?payment_cancelled=true",
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	return svc
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	handler := CreateCheckoutSession(newCheckoutService(t, sessions, nil), nil)

	body := `{"items":[{"photoId":"p1","purchaseType":"digital","price":4,"quantity":2,"displayName":"IMG_1.jpg"}]}`
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/checkout-sessions", strings.NewReader(body)),
		identity.Identity{Email: "buyer@example.com"})
	req.Header.Set("Idempotency-Key", "idem-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var session checkout.Session
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.SessionID != "cs_test_1" || session.URL == "" {
		t.Fatalf("unexpected session %+v", session)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected one stripe call, got %d", len(sessions.created))
	}
	params := sessions.created[0]
	if params.CustomerEmail == nil || *params.CustomerEmail != "buyer@example.com" {
		t.Fatalf("expected customer email prefilled")
	}
	if params.IdempotencyKey == nil || *params.IdempotencyKey != "idem-1" {
		t.Fatalf("expected idempotency key forwarded")
	}
}

func TestCreateCheckoutSessionRejectsEmptyItems(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	handler := CreateCheckoutSession(newCheckoutService(t, sessions, nil), nil)

	for _, body := range []string{
		`{"items":[]}`,
		`{"items":[{"photoId":"p1","purchaseType":"digital","price":0,"quantity":1}]}`,
		`{"items":[{"photoId":"p1","purchaseType":"digital","price":0.5,"quantity":1}]}`,
	} {
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/checkout-sessions", strings.NewReader(body)),
			identity.Identity{GuestID: identity.NewGuestID()})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
		if code := decodeEnvelope(t, rec).Error.Code; code != string(pkgerrors.CodeValidation) {
			t.Fatalf("%s: unexpected code %s", body, code)
		}
	}
	if len(sessions.created) != 0 {
		t.Fatalf("stripe must not be called for invalid carts")
	}
}

func TestCreateCheckoutSessionFromSavedCart(t *testing.T) {
	t.Parallel()

	carts := newCartService(t)
	guest := identity.Identity{GuestID: identity.NewGuestID()}
	if _, _, err := carts.AddItem(context.Background(), guest.OwnerKey(), cart.AddItemInput{PhotoID: "p1", PurchaseType: "print"}); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	sessions := &fakeSessions{}
	handler := CreateCheckoutSession(newCheckoutService(t, sessions, carts), nil)

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/checkout-sessions", strings.NewReader(`{}`)), guest)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(sessions.created) != 1 || len(sessions.created[0].LineItems) != 1 {
		t.Fatalf("expected one line item from saved cart")
	}
	if got := sessions.created[0].Metadata[checkout.MetadataOwnerKey]; got != guest.OwnerKey() {
		t.Fatalf("expected owner metadata %q, got %q", guest.OwnerKey(), got)
	}
}

type stubFinalizer struct {
	sessionID string
	result    orders.Result
	err       error
}

func (s *stubFinalizer) FinalizeOrder(_ context.Context, sessionID string) (orders.Result, error) {
	s.sessionID = sessionID
	return s.result, s.err
}

func TestFinalizeOrderHandler(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		result  orders.Result
		wantID  string
		already bool
	}{
		{"camel case", `{"sessionId":"cs_1"}`, orders.Result{OrderNumber: "ORDER-000001"}, "cs_1", false},
		{"snake case", `{"session_id":"cs_2"}`, orders.Result{AlreadyProcessed: true}, "cs_2", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubFinalizer{result: tc.result}
			rec := httptest.NewRecorder()
			FinalizeOrder(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/finalize-order", strings.NewReader(tc.body)))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if svc.sessionID != tc.wantID {
				t.Fatalf("expected session %s, got %s", tc.wantID, svc.sessionID)
			}
			var resp finalizeOrderResponse
			if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !resp.Success || resp.AlreadyProcessed != tc.already {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}

func TestFinalizeOrderHandlerErrors(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	FinalizeOrder(&stubFinalizer{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/finalize-order", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	busy := &stubFinalizer{err: pkgerrors.New(pkgerrors.CodeConflict, "order finalization already in progress")}
	FinalizeOrder(busy, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/finalize-order", strings.NewReader(`{"sessionId":"cs_busy"}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while in flight, got %d", rec.Code)
	}
}

type stubCatalog struct {
	photos []catalog.PhotoDTO
}

func (s stubCatalog) ListGalleries(context.Context) ([]catalog.GalleryDTO, error) {
	return nil, nil
}

func (s stubCatalog) ListPhotos(context.Context, string) ([]catalog.PhotoDTO, error) {
	return s.photos, nil
}

func (s stubCatalog) GetPhoto(_ context.Context, id string) (*catalog.PhotoDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
}

func TestListGalleryPhotosLimit(t *testing.T) {
	t.Parallel()

	svc := stubCatalog{photos: []catalog.PhotoDTO{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	router := chi.NewRouter()
	router.Get("/galleries/{galleryId}/photos", ListGalleryPhotos(svc, nil))
	router.Get("/photos/{photoId}", GetPhoto(svc, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/galleries/g1/photos?limit=2", nil))
	var photos []catalog.PhotoDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &photos); err != nil {
		t.Fatalf("decode photos: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(photos))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/galleries/g1/photos?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photos/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
