// Package preview is the local HTTP server that makes generated models
// reachable by URL, lists the workspace, and accepts sign-in callbacks.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/client"
	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Items lists the workspace.
type Items interface {
	List() []models.WorkItem
}

// Blobs resolves the id part of an artifact handle.
type Blobs interface {
	Get(id string) (models.Blob, bool)
}

// SignInFunc completes a sign-in with an external token.
type SignInFunc func(ctx context.Context, externalToken string) error

type Server struct {
	items   Items
	blobs   Blobs
	signIn  SignInFunc
	metrics http.Handler
	log     logging.Logger
}

func New(items Items, blobs Blobs, signIn SignInFunc, metrics http.Handler, log logging.Logger) *Server {
	return &Server{
		items:   items,
		blobs:   blobs,
		signIn:  signIn,
		metrics: metrics,
		log:     log.With("component", "preview"),
	}
}

// BlobBase is the handle prefix for a server listening on ln.
func BlobBase(ln net.Listener) string {
	return "http://" + ln.Addr().String() + "/blobs/"
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.logRequests)

	r.Get("/healthz", s.health)
	r.Get("/items", s.listItems)
	r.Get("/blobs/{id}", s.getBlob)
	r.Post("/auth/callback", s.authCallback)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Serve runs the server on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown preview server: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug(r.Context(), "preview request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(), "elapsed", time.Since(start))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type itemView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Mode         string    `json:"mode,omitempty"`
	ArtifactURL  string    `json:"artifact_url,omitempty"`
	SourceBytes  int       `json:"source_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

func (s *Server) listItems(w http.ResponseWriter, _ *http.Request) {
	items := s.items.List()
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		v := itemView{
			ID:           it.ID,
			Name:         it.DisplayName,
			Status:       it.Status(),
			ArtifactURL:  it.ArtifactURL,
			SourceBytes:  it.Source.Size(),
			CreatedAt:    it.CreatedAt,
			LastModified: it.LastModified,
		}
		if it.Snapshot != nil {
			v.Mode = it.Snapshot.Mode.String()
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getBlob(w http.ResponseWriter, r *http.Request) {
	b, ok := s.blobs.Get(chi.URLParam(r, "id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "handle revoked or unknown")
		return
	}
	ct := b.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", b.Name))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b.Data)
}

func (s *Server) authCallback(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil || in.AccessToken == "" {
		writeDetail(w, http.StatusBadRequest, "access_token is required")
		return
	}
	if err := s.signIn(r.Context(), in.AccessToken); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, client.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		writeDetail(w, status, client.Detail(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
