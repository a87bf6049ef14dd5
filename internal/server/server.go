package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sw33tLie/booktrend/internal/utils"
	"github.com/sw33tLie/booktrend/pkg/series"
)

// RowSource returns the whole series in chronological order.
type RowSource func(ctx context.Context) ([]series.StatRow, error)

// StoreSource reads rows from the CSV store.
func StoreSource(store *series.Store) RowSource {
	return func(context.Context) ([]series.StatRow, error) {
		return store.Load()
	}
}

// Server previews the rendered site and exposes the stored series as JSON.
type Server struct {
	Rows RowSource
	Dir  string
}

func New(rows RowSource, dir string) *Server {
	return &Server{
		Rows: rows,
		Dir:  dir,
	}
}

// Handler builds the router. It is separate from Start so tests can drive
// it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/api/items", s.handleItems)
	r.Get("/api/series/{item}", s.handleSeries)

	// Static Files
	r.Handle("/*", http.FileServer(http.Dir(s.Dir)))

	return r
}

func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	utils.Log.Infof("Serving %s on http://%s", s.Dir, addr)
	return srv.ListenAndServe()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		utils.Log.Debugf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
