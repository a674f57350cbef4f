package restapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"

	"github.com/bnb-chain/keys-hub/config"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/restapi/handlers"
	"github.com/bnb-chain/keys-hub/service"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// NewRouter registers the read api. Handlers read from service.RegistrySvc.
func NewRouter() *mux.Router {
	router := mux.NewRouter()
	v1 := router.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/status", handlers.HandleGetStatus()).Methods(http.MethodGet)

	v1.HandleFunc("/modules", handlers.HandleListModules()).Methods(http.MethodGet)
	// registered before /modules/{module_id} so "keys" is not taken as a module id
	v1.HandleFunc("/modules/keys", handlers.HandleGetAllKeys()).Methods(http.MethodGet)
	v1.HandleFunc("/modules/{module_id}", handlers.HandleGetModule()).Methods(http.MethodGet)
	v1.HandleFunc("/modules/{module_id}/keys", handlers.HandleGetModuleKeys()).Methods(http.MethodGet)
	v1.HandleFunc("/modules/{module_id}/keys/find", handlers.HandleFindModuleKeys()).Methods(http.MethodPost)
	v1.HandleFunc("/modules/{module_id}/operators", handlers.HandleGetModuleOperators()).Methods(http.MethodGet)
	v1.HandleFunc("/modules/{module_id}/operators/{operator_id}", handlers.HandleGetModuleOperator()).Methods(http.MethodGet)

	v1.HandleFunc("/operators", handlers.HandleGetAllOperators()).Methods(http.MethodGet)
	v1.HandleFunc("/keys/{pubkey}", handlers.HandleGetKeysByPubkey()).Methods(http.MethodGet)

	router.Use(setupGlobalMiddleware)
	return router
}

// setupGlobalMiddleware logs every request and turns handler panics into 500 responses.
func setupGlobalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := handlers.NewResponseWriter(w)
		defer func() {
			if rec := recover(); rec != nil {
				logging.Logger.Criticalf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				rw.WriteHeader(http.StatusInternalServerError)
				return
			}
			logging.Logger.Debugf("%s %s status=%d cost=%s", r.Method, r.URL.RequestURI(), rw.StatusCode(), time.Since(start))
		}()
		next.ServeHTTP(rw, r)
	})
}

type Server struct {
	httpServer *http.Server
}

// NewServer builds the http server. service.RegistrySvc must be set before it serves requests.
func NewServer(cfg *config.ServerConfig) *Server {
	if service.RegistrySvc == nil {
		panic("registry service is not initialized")
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.GetAddress(),
			Handler:           NewRouter(),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("serving keys api on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
