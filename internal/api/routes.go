// Package api provides the HTTP API for uiforge.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"uiforge/cas"
	"uiforge/catalog"
	"uiforge/codegen"
	"uiforge/element"
	"uiforge/internal/config"
	"uiforge/internal/metrics"
	"uiforge/internal/proto"
	"uiforge/internal/registry"
	"uiforge/internal/store"
	"uiforge/mutate"
)

// RequestTimeout bounds every request.
const RequestTimeout = 30 * time.Second

// Deps are the services the handlers use. Metrics and Gatherer are
// optional; /metrics is served only when Gatherer is set.
type Deps struct {
	Registry *registry.Registry
	Store    *store.DB
	Catalog  *catalog.Catalog
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Handler serves the document API.
type Handler struct {
	reg    *registry.Registry
	db     *store.DB
	cat    *catalog.Catalog
	cfg    *config.Config
	logger *zap.Logger
}

// NewRouter creates the HTTP router with all routes registered.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	h := &Handler{reg: d.Registry, db: d.Store, cat: d.Catalog, cfg: d.Config, logger: d.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(GzipMiddleware)

	r.Get("/health", h.Health)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", h.Catalog)
		r.Get("/docs", h.ListDocuments)
		r.Delete("/docs/{doc}", h.DeleteDocument)

		r.Group(func(r chi.Router) {
			r.Use(WithDocument(d.Registry))

			r.Get("/docs/{doc}/tree", h.Tree)
			r.Post("/docs/{doc}/nodes", h.Insert)
			r.Patch("/docs/{doc}/nodes/{id}", h.Update)
			r.Delete("/docs/{doc}/nodes/{id}", h.Remove)
			r.Post("/docs/{doc}/nodes/{id}/move", h.Move)
			r.Post("/docs/{doc}/nodes/{id}/duplicate", h.Duplicate)
			r.Post("/docs/{doc}/drop", h.Drop)
			r.Post("/docs/{doc}/undo", h.Undo)
			r.Post("/docs/{doc}/redo", h.Redo)
			r.Get("/docs/{doc}/history", h.History)
			r.Post("/docs/{doc}/select", h.Select)
			r.Get("/docs/{doc}/export", h.Export)
		})
	})

	return r
}

// ----- Health -----

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, proto.HealthResponse{
		Status:  "ok",
		Version: h.cfg.Version,
		Open:    h.reg.Len(),
	})
}

// ----- Catalog and documents -----

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	resp := proto.CatalogResponse{Variants: []proto.VariantInfo{}}
	for _, name := range h.cat.Names() {
		v, _ := h.cat.Lookup(name)
		resp.Variants = append(resp.Variants, proto.VariantInfo{
			Name:        v.Name,
			Container:   v.Container,
			DisplayName: v.DisplayName,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	// Unsaved edits would otherwise be missing from the listing.
	if err := h.reg.Flush(r.Context()); err != nil {
		h.logger.Warn("flush before listing failed", zap.Error(err))
	}
	docs, err := h.db.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents", err)
		return
	}

	open := make(map[string]bool)
	for _, name := range h.reg.Open() {
		open[name] = true
	}
	resp := proto.DocumentsResponse{Documents: []proto.DocumentInfo{}}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, proto.DocumentInfo{
			Name:      d.Name,
			Head:      cas.BytesToHex(d.Head),
			Cursor:    d.Cursor,
			Revision:  d.Revision,
			Entries:   d.Entries,
			UpdatedAt: d.UpdatedAt.UnixMilli(),
			Open:      open[d.Name],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "doc")
	h.reg.Forget(name)
	if err := h.db.DeleteDocument(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- Tree -----

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	f, rev := doc.Engine.Snapshot()
	digest, err := cas.ForestDigest(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash tree", err)
		return
	}
	if f == nil {
		f = element.Forest{}
	}
	writeJSON(w, http.StatusOK, proto.TreeResponse{
		Document:  doc.Name,
		Forest:    f,
		Revision:  rev,
		Selection: doc.Engine.Selection(),
		Digest:    cas.BytesToHex(digest),
	})
}

// ----- Mutations -----

func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())

	var req proto.InsertRequest
	if !decode(w, r, &req) {
		return
	}
	if (req.Variant == "") == (req.Node == nil) {
		writeError(w, http.StatusBadRequest, "exactly one of variant or node is required", nil)
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}

	var id string
	var err error
	if req.Node != nil {
		id, err = doc.Engine.InsertNode(req.Node, req.ParentID, index)
	} else {
		if _, ok := h.cat.Lookup(req.Variant); !ok {
			writeError(w, http.StatusBadRequest, "unknown variant", errors.New(req.Variant))
			return
		}
		id, err = doc.Engine.Insert(req.Variant, req.ParentID, index)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proto.MutationResponse{Applied: true, ID: id, Revision: doc.Engine.Revision()})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req proto.UpdateRequest
	if !decode(w, r, &req) {
		return
	}
	before := doc.Engine.Revision()
	if err := doc.Engine.Update(id, req.Patch()); err != nil {
		writeEngineError(w, err)
		return
	}
	rev := doc.Engine.Revision()
	writeJSON(w, http.StatusOK, proto.MutationResponse{Applied: rev != before, ID: id, Revision: rev})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	id := chi.URLParam(r, "id")

	applied := doc.Engine.Remove(id)
	writeJSON(w, http.StatusOK, proto.MutationResponse{Applied: applied, ID: id, Revision: doc.Engine.Revision()})
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req proto.MoveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Position == "" {
		req.Position = string(mutate.After)
	}
	pos, err := mutate.ParsePosition(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position", err)
		return
	}
	applied := doc.Engine.Move(id, req.Over, pos)
	writeJSON(w, http.StatusOK, proto.MutationResponse{Applied: applied, ID: id, Revision: doc.Engine.Revision()})
}

func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	id := chi.URLParam(r, "id")

	newID, ok := doc.Engine.Duplicate(id)
	if !ok {
		writeJSON(w, http.StatusOK, proto.MutationResponse{Applied: false, Revision: doc.Engine.Revision()})
		return
	}
	writeJSON(w, http.StatusCreated, proto.MutationResponse{Applied: true, ID: newID, Revision: doc.Engine.Revision()})
}

func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())

	var req proto.DropRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Active.IsNew {
		if _, ok := h.cat.Lookup(req.Active.Variant); !ok {
			writeError(w, http.StatusBadRequest, "unknown variant", errors.New(req.Active.Variant))
			return
		}
	}

	if !req.Commit {
		intent := doc.Engine.Preview(req.Active, req.Hover)
		writeJSON(w, http.StatusOK, proto.DropResponse{Intent: intent, Revision: doc.Engine.Revision()})
		return
	}

	res, err := doc.Engine.Drop(req.Active, req.Hover)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proto.DropResponse{
		Intent:   res.Intent,
		Applied:  res.Applied,
		ID:       res.ID,
		Revision: doc.Engine.Revision(),
	})
}

// ----- History and selection -----

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	applied := doc.Engine.Undo()
	writeJSON(w, http.StatusOK, proto.MutationResponse{Applied: applied, Revision: doc.Engine.Revision()})
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	applied := doc.Engine.Redo()
	writeJSON(w, http.StatusOK, proto.MutationResponse{Applied: applied, Revision: doc.Engine.Revision()})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	writeJSON(w, http.StatusOK, proto.HistoryResponse{
		HistoryInfo: doc.Engine.History(),
		Revision:    doc.Engine.Revision(),
	})
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())

	var req proto.SelectRequest
	if !decode(w, r, &req) {
		return
	}
	if !doc.Engine.Select(req.ID) {
		writeError(w, http.StatusNotFound, "node not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, proto.SelectResponse{Selection: doc.Engine.Selection()})
}

// ----- Export -----

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc := DocumentFromContext(r.Context())
	q := r.URL.Query()

	flavor := codegen.Typed
	if s := q.Get("flavor"); s != "" {
		f, err := codegen.ParseFlavor(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid flavor", err)
			return
		}
		flavor = f
	}
	opts := codegen.Options{
		ComponentName: q.Get("name"),
		Include:       q["include"],
	}
	if opts.ComponentName == "" {
		opts.ComponentName = h.cfg.ComponentName
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid include pattern", err)
		return
	}

	src := doc.Engine.Export(flavor, opts)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+codegen.ComponentName(opts.ComponentName)+flavor.Ext()+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(src))
}

// ----- Helpers -----

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mutate.ErrTargetNotFound):
		writeError(w, http.StatusNotFound, "node not found", err)
	case errors.Is(err, mutate.ErrInvalidBucket),
		errors.Is(err, element.ErrNilNode),
		errors.Is(err, element.ErrEmptyID),
		errors.Is(err, element.ErrDuplicateID),
		errors.Is(err, element.ErrParentMismatch):
		writeError(w, http.StatusBadRequest, "invalid edit", err)
	default:
		writeError(w, http.StatusInternalServerError, "edit failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := proto.ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
