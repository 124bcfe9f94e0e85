package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/repository"
)

// Options configures the reference API.
type Options struct {
	// Resources restricts /api/{resource} to these names. Empty allows any.
	Resources []string
	// MaxRecords is the plan limit per resource; creating beyond it answers 402.
	MaxRecords int
	Logger     *slog.Logger
}

// Server serves the REST resources.
type Server struct {
	store  repository.ResourceStore
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewServer creates an HTTP server router with middleware.
func NewServer(store repository.ResourceStore, opts Options, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{store: store, opts: opts, logger: logger, now: time.Now}

	r := chi.NewRouter()
	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Route("/api/{resource}", func(r chi.Router) {
			r.Use(srv.knownResource)
			r.Get("/", srv.handleList)
			r.Post("/", srv.handleCreate)
			r.Put("/", srv.handleUpdate)
			r.Patch("/", srv.handleUpdate)
			r.Delete("/", srv.handleDelete)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) knownResource(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "resource")
		if len(s.opts.Resources) > 0 && !slices.Contains(s.opts.Resources, name) {
			WriteError(w, http.StatusNotFound, "unknown resource "+name)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tenant(r *http.Request) string {
	if id, ok := TenantFromContext(r.Context()); ok && id != "" {
		return id
	}
	return DefaultTenant
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		s.handleGet(w, r, id)
		return
	}
	filters := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			filters[k] = v[0]
		}
	}
	items, err := s.store.List(r.Context(), tenant(r), chi.URLParam(r, "resource"), filters)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, items)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	e, err := s.store.Get(r.Context(), tenant(r), chi.URLParam(r, "resource"), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, e)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := chi.URLParam(r, "resource")
	tenantID := tenant(r)

	if s.opts.MaxRecords > 0 {
		n, err := s.store.Count(r.Context(), tenantID, name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if n >= s.opts.MaxRecords {
			WriteError(w, http.StatusPaymentRequired, "plan limit reached, upgrade to add more "+name)
			return
		}
	}

	e := entity.New(body)
	if e.ID == "" || e.HasLocalID() {
		e.ID = uuid.NewString()
	}
	if _, ok := e.Fields["createdAt"]; !ok {
		e.Fields["createdAt"] = s.now().UTC().Format(time.RFC3339)
	}

	created, err := s.store.Create(r.Context(), tenantID, name, e)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("created", "resource", name, "id", created.ID, "tenant", tenantID)
	WriteData(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.URL.Query().Get("id")
	if v, ok := body[entity.KeyID]; ok && id == "" {
		id = entity.New(map[string]any{entity.KeyID: v}).ID
	}
	if id == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	delete(body, entity.KeyID)
	delete(body, entity.KeyIsLocal)
	delete(body, entity.KeyIsSynced)

	updated, err := s.store.Update(r.Context(), tenant(r), chi.URLParam(r, "resource"), id, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.Delete(r.Context(), tenant(r), chi.URLParam(r, "resource"), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrConflict):
		WriteError(w, http.StatusConflict, "already exists")
	case errors.Is(err, repository.ErrAccessDenied):
		WriteError(w, http.StatusForbidden, "access denied")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
