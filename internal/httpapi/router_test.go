package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cementops/planner/internal/config"
	"cementops/planner/internal/core/pallet"
	"cementops/planner/internal/core/planner"
	"cementops/planner/internal/httpapi"
)

// fakeStore is a minimal planner.Store plus httpapi.PlanReader,
// in-memory, for exercising the HTTP adapter without a database.
type fakeStore struct {
	plans       []planner.DeliveryPlan
	unplaceable []planner.UnplaceableReport
	runErr      error
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx planner.Store) error) error {
	return fn(ctx, s)
}
func (s *fakeStore) LoadFleet(ctx context.Context) ([]planner.Vehicle, error) { return nil, nil }
func (s *fakeStore) LoadCatalogue(ctx context.Context) (map[string]planner.Item, error) {
	return nil, nil
}
func (s *fakeStore) LoadOrders(ctx context.Context, date time.Time) ([]planner.ShippingOrder, error) {
	return nil, nil
}
func (s *fakeStore) LoadPalletSpec(ctx context.Context) (planner.PalletSpecDTO, error) {
	return planner.PalletSpecDTO{}, nil
}
func (s *fakeStore) LoadPalletizeResult(ctx context.Context, date time.Time) (planner.PalletizeResult, bool, error) {
	return planner.PalletizeResult{}, false, nil
}
func (s *fakeStore) SavePalletizeResult(ctx context.Context, date time.Time, result planner.PalletizeResult) error {
	return nil
}
func (s *fakeStore) SavePlan(ctx context.Context, plan planner.DeliveryPlan) error {
	if s.runErr != nil {
		return s.runErr
	}
	s.plans = append(s.plans, plan)
	return nil
}
func (s *fakeStore) MarkUnplaceable(ctx context.Context, date time.Time, report planner.UnplaceableReport) error {
	s.unplaceable = append(s.unplaceable, report)
	return nil
}
func (s *fakeStore) PlansForDate(ctx context.Context, date time.Time) ([]planner.DeliveryPlan, error) {
	return s.plans, nil
}
func (s *fakeStore) UnplaceableForDate(ctx context.Context, date time.Time) ([]planner.UnplaceableReport, error) {
	return s.unplaceable, nil
}

// fakeLoader returns a fixed RunContext regardless of date.
type fakeLoader struct {
	rc  planner.RunContext
	err error
}

func (l *fakeLoader) Load(ctx context.Context, date time.Time) (planner.RunContext, error) {
	if l.err != nil {
		return planner.RunContext{}, l.err
	}
	rc := l.rc
	rc.Date = date
	return rc, nil
}

func testDeps(store *fakeStore, loader *fakeLoader) httpapi.Deps {
	return httpapi.Deps{
		Store:  store,
		Loader: loader,
		Locker: nil,
		Config: config.Config{},
	}
}

func testRunContext() planner.RunContext {
	return planner.RunContext{
		Fleet: []planner.Vehicle{{ID: 1, FloorW: 240, FloorD: 1200, PayloadKg: 10000}},
		Catalogue: map[string]planner.Item{
			"CEM-40KG-BAG": {ItemCode: "CEM-40KG-BAG", WidthCM: 40, DepthCM: 30, HeightCM: 10, MassKg: 40},
		},
		PalletSpec: pallet.Spec{FootprintW: 100, FootprintD: 100, MaxHeightCM: 80, MaxMassKg: 500},
		Orders: []planner.ShippingOrder{
			{
				ID:          1,
				Destination: planner.Destination{Address: "東京都新宿区西新宿2-8-1"},
				Lines:       []planner.OrderLine{{ItemCode: "CEM-40KG-BAG", Quantity: 2}},
			},
		},
	}
}

func TestTriggerRunSuccess(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{rc: testRunContext()}
	router := httpapi.NewRouter(testDeps(store, loader))

	req := httptest.NewRequest(http.MethodPost, "/api/runs/2026-08-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Plans []planner.DeliveryPlan `json:"Plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Plans, 1)
	require.Len(t, store.plans, 1)
}

func TestTriggerRunBadDate(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{rc: testRunContext()}
	router := httpapi.NewRouter(testDeps(store, loader))

	req := httptest.NewRequest(http.MethodPost, "/api/runs/not-a-date", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerRunNoFleetMapsTo422(t *testing.T) {
	store := &fakeStore{}
	rc := testRunContext()
	rc.Fleet = nil
	loader := &fakeLoader{rc: rc}
	router := httpapi.NewRouter(testDeps(store, loader))

	req := httptest.NewRequest(http.MethodPost, "/api/runs/2026-08-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListPlansAfterTrigger(t *testing.T) {
	store := &fakeStore{}
	loader := &fakeLoader{rc: testRunContext()}
	router := httpapi.NewRouter(testDeps(store, loader))

	triggerReq := httptest.NewRequest(http.MethodPost, "/api/runs/2026-08-01", nil)
	router.ServeHTTP(httptest.NewRecorder(), triggerReq)

	req := httptest.NewRequest(http.MethodGet, "/api/plans?date=2026-08-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Plans []planner.DeliveryPlan `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Plans, 1)
}

func TestHealthz(t *testing.T) {
	router := httpapi.NewRouter(testDeps(&fakeStore{}, &fakeLoader{}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
