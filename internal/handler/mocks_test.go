package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/handler"
	"github.com/tripdiary/backend/internal/middleware"
	"github.com/tripdiary/backend/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	create  func(ctx context.Context, callerID string, trip domain.Trip) (domain.Trip, error)
	getByID func(ctx context.Context, tripID uuid.UUID, callerID string) (domain.Trip, error)
	list    func(ctx context.Context, callerID string, p domain.PageRequest) (domain.Page[domain.Trip], error)
	update  func(ctx context.Context, tripID uuid.UUID, callerID string, patch domain.TripPatch) (domain.Trip, error)
	delete  func(ctx context.Context, tripID uuid.UUID, callerID string) error
}

func (m *mockTripServicer) Create(ctx context.Context, callerID string, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, callerID, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID, callerID string) (domain.Trip, error) {
	return m.getByID(ctx, id, callerID)
}
func (m *mockTripServicer) List(ctx context.Context, callerID string, p domain.PageRequest) (domain.Page[domain.Trip], error) {
	return m.list(ctx, callerID, p)
}
func (m *mockTripServicer) Update(ctx context.Context, id uuid.UUID, callerID string, patch domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, id, callerID, patch)
}
func (m *mockTripServicer) Delete(ctx context.Context, id uuid.UUID, callerID string) error {
	return m.delete(ctx, id, callerID)
}

// mockPlaceServicer is a test double for handler.PlaceServicer.
type mockPlaceServicer struct {
	create  func(ctx context.Context, tripID uuid.UUID, callerID string, p domain.Place) (domain.Place, error)
	getByID func(ctx context.Context, tripID, placeID uuid.UUID, callerID string) (domain.Place, error)
	list    func(ctx context.Context, tripID uuid.UUID, callerID string, p domain.PageRequest) (domain.Page[domain.Place], error)
	update  func(ctx context.Context, tripID, placeID uuid.UUID, callerID string, patch domain.PlacePatch) (domain.Place, error)
	delete  func(ctx context.Context, tripID, placeID uuid.UUID, callerID string) error
}

func (m *mockPlaceServicer) Create(ctx context.Context, tripID uuid.UUID, callerID string, p domain.Place) (domain.Place, error) {
	return m.create(ctx, tripID, callerID, p)
}
func (m *mockPlaceServicer) GetByID(ctx context.Context, tripID, placeID uuid.UUID, callerID string) (domain.Place, error) {
	return m.getByID(ctx, tripID, placeID, callerID)
}
func (m *mockPlaceServicer) List(ctx context.Context, tripID uuid.UUID, callerID string, p domain.PageRequest) (domain.Page[domain.Place], error) {
	return m.list(ctx, tripID, callerID, p)
}
func (m *mockPlaceServicer) Update(ctx context.Context, tripID, placeID uuid.UUID, callerID string, patch domain.PlacePatch) (domain.Place, error) {
	return m.update(ctx, tripID, placeID, callerID, patch)
}
func (m *mockPlaceServicer) Delete(ctx context.Context, tripID, placeID uuid.UUID, callerID string) error {
	return m.delete(ctx, tripID, placeID, callerID)
}

// mockTimelineServicer is a test double for handler.TimelineServicer.
type mockTimelineServicer struct {
	timeline   func(ctx context.Context, tripID uuid.UUID, callerID string) ([]domain.DayTimeline, error)
	addItem    func(ctx context.Context, tripID uuid.UUID, callerID string, in service.AddItemInput) (uuid.UUID, error)
	updateItem func(ctx context.Context, tripID, itemID uuid.UUID, callerID string, in service.UpdateItemInput) (domain.TimelineItem, error)
	deleteItem func(ctx context.Context, itemID uuid.UUID, callerID string) error
	bulkDays   func(ctx context.Context, tripID uuid.UUID, callerID string, updates []domain.DayUpdate) ([]domain.TripDay, error)
}

func (m *mockTimelineServicer) Timeline(ctx context.Context, tripID uuid.UUID, callerID string) ([]domain.DayTimeline, error) {
	return m.timeline(ctx, tripID, callerID)
}
func (m *mockTimelineServicer) AddItem(ctx context.Context, tripID uuid.UUID, callerID string, in service.AddItemInput) (uuid.UUID, error) {
	return m.addItem(ctx, tripID, callerID, in)
}
func (m *mockTimelineServicer) UpdateItem(ctx context.Context, tripID, itemID uuid.UUID, callerID string, in service.UpdateItemInput) (domain.TimelineItem, error) {
	return m.updateItem(ctx, tripID, itemID, callerID, in)
}
func (m *mockTimelineServicer) DeleteItem(ctx context.Context, itemID uuid.UUID, callerID string) error {
	return m.deleteItem(ctx, itemID, callerID)
}
func (m *mockTimelineServicer) BulkUpdateDays(ctx context.Context, tripID uuid.UUID, callerID string, updates []domain.DayUpdate) ([]domain.TripDay, error) {
	return m.bulkDays(ctx, tripID, callerID, updates)
}

// mockExportServicer is a test double for handler.ExportServicer.
type mockExportServicer struct {
	export func(ctx context.Context, tripID uuid.UUID, callerID string) (domain.TripExport, error)
}

func (m *mockExportServicer) Export(ctx context.Context, tripID uuid.UUID, callerID string) (domain.TripExport, error) {
	return m.export(ctx, tripID, callerID)
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.TripServicer     = (*mockTripServicer)(nil)
	_ handler.PlaceServicer    = (*mockPlaceServicer)(nil)
	_ handler.TimelineServicer = (*mockTimelineServicer)(nil)
	_ handler.ExportServicer   = (*mockExportServicer)(nil)
	_ handler.Pinger           = mockPinger{}
)

// ---- helpers ---------------------------------------------------------------

const (
	caller       = "user-a"
	callerHeader = "X-Test-Caller"
)

// fakeAuthn stands in for the JWT middleware: it trusts callerHeader.
func fakeAuthn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(callerHeader); id != "" {
			r = r.WithContext(middleware.WithCallerID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// services bundles the mocks a test wires into the router.
type services struct {
	trips    handler.TripServicer
	places   handler.PlaceServicer
	timeline handler.TimelineServicer
	export   handler.ExportServicer
	db       handler.Pinger
}

// newHTTPHandler mounts a Server on a chi router the same way main.go does.
func newHTTPHandler(s services) http.Handler {
	r := chi.NewRouter()
	handler.NewServer(s.trips, s.places, s.timeline, s.export, s.db).Register(r, fakeAuthn)
	return r
}

// do sends a request as caller and returns the recorded response.
func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(callerHeader, caller)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func newRequestWithoutCaller(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
