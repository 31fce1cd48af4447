// Package api exposes manual triggers and run history over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/mirror"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/model"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/service"
)

type Runner interface {
	Run(ctx context.Context, family string, w service.Window) (*service.Summary, error)
	RunAll(ctx context.Context, families []string, w service.Window) ([]*service.Summary, error)
	DefaultWindow() service.Window
}

type Syncer interface {
	SyncMultipleTables(ctx context.Context, tables map[string]mirror.SyncOptions) map[string]mirror.TableResult
}

type RunLogReader interface {
	ListByRun(ctx context.Context, runID string) ([]*model.RunLog, error)
	ListRecent(ctx context.Context, family string, limit int) ([]*model.RunLog, error)
}

// Controller holds the handlers; nil collaborators leave their routes unmounted.
type Controller struct {
	Runner        Runner
	Syncer        Syncer
	RunLogs       RunLogReader
	Metrics       http.Handler
	MetricsPath   string
	DefaultTables []string
}

type apiError struct {
	Error string `json:"error"`
}

type apiResponse[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

// Register mounts every route; it matches httpserver.RouteRegisterFunc.
func (c *Controller) Register(r chi.Router) error {
	if c.Metrics != nil {
		path := c.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, c.Metrics)
	}
	r.Route("/api/v1", func(r chi.Router) {
		if c.Runner != nil {
			r.Post("/run", c.runAll)
			r.Post("/run/{family}", c.runFamily)
		}
		if c.Syncer != nil {
			r.Post("/sync", c.sync)
		}
		if c.RunLogs != nil {
			r.Get("/runs", c.listRuns)
			r.Get("/runs/{runID}", c.getRun)
		}
	})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// window reads ?start=&end=, each defaulting to the runner's daily window.
func (c *Controller) window(r *http.Request) (service.Window, error) {
	w := c.Runner.DefaultWindow()
	q := r.URL.Query()
	if s := q.Get("end"); s != "" {
		end, err := calendar.ParseDate(s)
		if err != nil {
			return w, err
		}
		w.End = end
	}
	if s := q.Get("start"); s != "" {
		start, err := calendar.ParseDate(s)
		if err != nil {
			return w, err
		}
		w.Start = start
	}
	return w, nil
}

// detached keeps a run going when the client disconnects.
func detached(r *http.Request) context.Context {
	return logging.WithRunID(context.WithoutCancel(r.Context()))
}

func (c *Controller) runFamily(w http.ResponseWriter, r *http.Request) {
	win, err := c.window(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := c.Runner.Run(detached(r), chi.URLParam(r, "family"), win)
	switch {
	case errors.Is(err, service.ErrUnknownFamily):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrFamilyBusy):
		writeErr(w, http.StatusConflict, err.Error())
	case sum == nil && err != nil:
		writeErr(w, http.StatusInternalServerError, err.Error())
	default:
		resp := apiResponse[*service.Summary]{Data: sum}
		if err != nil {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (c *Controller) runAll(w http.ResponseWriter, r *http.Request) {
	win, err := c.window(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	sums, err := c.Runner.RunAll(detached(r), r.URL.Query()["family"], win)
	resp := apiResponse[[]*service.Summary]{Data: sums}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// syncRequest takes per-table filters as bound comparisons; raw SQL
// conditions are only accepted from the config file and the CLI.
type syncRequest struct {
	Tables   []string                   `json:"tables"`
	Truncate *bool                      `json:"truncate"`
	Filters  map[string][]mirror.Filter `json:"filters"`
}

func (c *Controller) sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}
	tables := req.Tables
	if len(tables) == 0 {
		tables = c.DefaultTables
	}
	if len(tables) == 0 {
		writeErr(w, http.StatusBadRequest, "no tables")
		return
	}
	truncate := true
	if req.Truncate != nil {
		truncate = *req.Truncate
	}
	for t, fs := range req.Filters {
		for _, f := range fs {
			if err := f.Validate(); err != nil {
				writeErr(w, http.StatusBadRequest, t+": "+err.Error())
				return
			}
		}
	}
	opts := make(map[string]mirror.SyncOptions, len(tables))
	for _, t := range tables {
		opts[t] = mirror.SyncOptions{Truncate: truncate, Filters: req.Filters[t]}
	}
	start := time.Now()
	res := c.Syncer.SyncMultipleTables(detached(r), opts)
	logging.Infof(r.Context(), "[api] sync of %d tables took %s", len(tables), time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, apiResponse[map[string]mirror.TableResult]{Data: res})
}

func (c *Controller) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := c.RunLogs.ListRecent(r.Context(), r.URL.Query().Get("family"), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, apiResponse[[]*model.RunLog]{Data: list})
}

func (c *Controller) getRun(w http.ResponseWriter, r *http.Request) {
	list, err := c.RunLogs.ListByRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(list) == 0 {
		writeErr(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse[[]*model.RunLog]{Data: list})
}
