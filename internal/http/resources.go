package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	applog "farmdash/internal/log"
	"farmdash/internal/records"
	"farmdash/internal/services"
)

// crud is the part of an entity service the generic handlers drive.
type crud[T services.Entity] interface {
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id int64, patch records.Record) (T, error)
	Delete(ctx context.Context, id int64) error
}

// resource mounts list/get/create/patch/delete (and stats) under /{name}.
type resource[T services.Entity] struct {
	name  string
	svc   crud[T]
	list  func(*http.Request) (any, error)
	stats func(context.Context) (any, error)
	// extra registers routes that must win over /{id}.
	extra func(chi.Router)
}

func (res resource[T]) mount(r chi.Router) {
	r.Route("/"+res.name, func(r chi.Router) {
		r.Get("/", res.handleList)
		r.Post("/", res.handleCreate)
		if res.stats != nil {
			r.Get("/stats", res.handleStats)
		}
		if res.extra != nil {
			res.extra(r)
		}
		r.Get("/{id}", res.handleGet)
		r.Patch("/{id}", res.handleUpdate)
		r.Delete("/{id}", res.handleDelete)
	})
}

func (res resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := res.list(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (res resource[T]) handleStats(w http.ResponseWriter, r *http.Request) {
	s, err := res.stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (res resource[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := res.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (res resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := records.Decode[T](rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := res.svc.Create(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Record created",
		applog.FieldTable, res.name, applog.FieldOperation, applog.OpCreate)
	writeJSON(w, http.StatusCreated, created)
}

func (res resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := res.svc.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Record updated",
		applog.FieldTable, res.name, applog.FieldRecordID, id, applog.FieldOperation, applog.OpUpdate)
	writeJSON(w, http.StatusOK, updated)
}

func (res resource[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Record deleted",
		applog.FieldTable, res.name, applog.FieldRecordID, id, applog.FieldOperation, applog.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

// listBy adapts a list method taking store options; fieldId and cropId
// query parameters become filters.
func listBy[V any](fn func(context.Context, records.ListOptions) ([]V, error)) func(*http.Request) (any, error) {
	return func(r *http.Request) (any, error) {
		opts, err := refOptions(r)
		if err != nil {
			return nil, err
		}
		return fn(r.Context(), opts)
	}
}

func statsOf[S any](fn func(context.Context) (S, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}
