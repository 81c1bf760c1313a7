// Package httpapi is a thin adapter around the planning core: it
// triggers a run for a date and serves the plans/unplaceable report it
// produced. It owns no packing or routing logic of its own — that all
// lives in internal/core/planner and the packages it wires together.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cementops/planner/internal/config"
	"cementops/planner/internal/core/planner"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the adapter's constructor dependencies.
type Deps struct {
	Store  planner.Store
	Loader InputLoader
	Locker DateLocker
	Config config.Config
}

// InputLoader assembles a RunContext for a date: fleet, catalogue,
// candidate orders, and the pallet spec. It is a separate seam from
// Store so the adapter can trigger a run without the core depending on
// how that input was assembled.
type InputLoader interface {
	Load(ctx context.Context, date time.Time) (planner.RunContext, error)
}

// DateLocker serialises concurrent runs for the same date (spec.md §5):
// "concurrent runs for the same date are not supported and must be
// serialised by an external advisory lock keyed on the plan date". The
// core itself has no notion of locking — this is purely an adapter
// concern.
type DateLocker interface {
	WithDateLock(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error
}

type App struct {
	orchestrator *planner.Orchestrator
	loader       InputLoader
	locker       DateLocker
	cfg          config.Config
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	app := &App{
		orchestrator: &planner.Orchestrator{Store: deps.Store},
		loader:       deps.Loader,
		locker:       deps.Locker,
		cfg:          deps.Config,
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/runs/{date}", app.handleTriggerRun)
		api.Get("/plans", app.handleListPlans)
		api.Get("/unplaceable", app.handleListUnplaceable)
	})

	return r
}

func (a *App) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "date must be YYYY-MM-DD")
		return
	}

	rc, err := a.loader.Load(r.Context(), date)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "could not assemble run input: "+err.Error())
		return
	}
	rc.Date = date

	var result planner.RunResult
	runFn := func(ctx context.Context) error {
		var runErr error
		result, runErr = a.orchestrator.Run(ctx, rc)
		return runErr
	}

	if a.locker != nil {
		err = a.locker.WithDateLock(r.Context(), date, runFn)
	} else {
		err = runFn(r.Context())
	}
	if err != nil {
		writePlannerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListPlans and handleListUnplaceable serve every persisted plan
// and unplaceable report for a date, across all runs for that date.
// Both read from Store directly rather than re-running the
// orchestrator, since a plan is a persisted, queryable artifact once
// committed.
func (a *App) handleListPlans(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "date query param must be YYYY-MM-DD")
		return
	}
	reader, ok := a.orchestrator.Store.(PlanReader)
	if !ok {
		writeAPIError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "store does not support plan queries")
		return
	}
	plans, err := reader.PlansForDate(r.Context(), date)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (a *App) handleListUnplaceable(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "date query param must be YYYY-MM-DD")
		return
	}
	reader, ok := a.orchestrator.Store.(PlanReader)
	if !ok {
		writeAPIError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "store does not support plan queries")
		return
	}
	reports, err := reader.UnplaceableForDate(r.Context(), date)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unplaceable": reports})
}

func parseDateQuery(r *http.Request) (time.Time, error) {
	return time.Parse("2006-01-02", r.URL.Query().Get("date"))
}

// PlanReader is the read side of query endpoints, implemented by
// internal/db's PostgresStore in addition to planner.Store.
type PlanReader interface {
	PlansForDate(ctx context.Context, date time.Time) ([]planner.DeliveryPlan, error)
	UnplaceableForDate(ctx context.Context, date time.Time) ([]planner.UnplaceableReport, error)
}

// ---------- helpers ----------

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	var e apiError
	e.Error.Code = code
	e.Error.Message = message
	writeJSON(w, status, e)
}

// writePlannerError maps the core's taxonomy (spec.md §7) onto HTTP
// status codes: InputValidation/NoFleet are client-caused (the caller
// gave bad fleet/order/catalogue data), Storage is a server failure.
func writePlannerError(w http.ResponseWriter, err error) {
	var perr *planner.Error
	if !errors.As(err, &perr) {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	switch perr.Kind {
	case planner.KindNoFleet, planner.KindInputValidation:
		writeAPIError(w, http.StatusUnprocessableEntity, perr.Kind.String(), perr.Error())
	case planner.KindStorage:
		writeAPIError(w, http.StatusInternalServerError, perr.Kind.String(), perr.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", perr.Error())
	}
}
