package server

import (
	"context"
	"net/http"
	"time"

	"soundfolio/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// corsMiddleware adds CORS headers and answers preflight requests directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter wires every route. media may be nil when no object storage is
// configured; staticDir may be empty to serve the API only.
func NewRouter(h *APIHandler, staticDir string, media http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Catalog
	router.HandleFunc("/api/tracks", h.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tags", h.GetTagsHandler).Methods(http.MethodGet)

	// Playlist
	router.HandleFunc("/api/playlist", h.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlist/{index:[0-9]+}/reveal", h.CatalogGuard(h.RevealHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/{index:[0-9]+}/activate", h.CatalogGuard(h.AuthMiddleware(h.ActivateHandler))).Methods(http.MethodPost)

	// Player
	router.HandleFunc("/api/player", h.CatalogGuard(h.GetPlayerHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/select/{index:[0-9]+}", h.CatalogGuard(h.AuthMiddleware(h.SelectHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/toggle", h.CatalogGuard(h.AuthMiddleware(h.ToggleHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/next", h.CatalogGuard(h.AuthMiddleware(h.NextHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/prev", h.CatalogGuard(h.AuthMiddleware(h.PrevHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek", h.CatalogGuard(h.AuthMiddleware(h.SeekHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/drag", h.CatalogGuard(h.AuthMiddleware(h.DragHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/hover", h.CatalogGuard(h.AuthMiddleware(h.HoverHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/volume", h.CatalogGuard(h.AuthMiddleware(h.VolumeHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/player/mute", h.CatalogGuard(h.AuthMiddleware(h.MuteHandler))).Methods(http.MethodPost)
	router.HandleFunc("/ws/player", h.PlayerSocketHandler).Methods(http.MethodGet)

	// Play history
	router.HandleFunc("/api/history", h.HistoryHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/history/top", h.TopTracksHandler).Methods(http.MethodGet)

	// Auth
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)

	if media != nil {
		router.PathPrefix("/media/").Handler(media).Methods(http.MethodGet, http.MethodHead)
	}
	if staticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}
	return router
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	// WebSocket connections manage their own read and write deadlines.
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
