package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/panyam/keyhole/internal/logutil"
)

// TLS holds the certificate pair. A zero value means plain HTTP.
type TLS struct {
	CertFile string
	KeyFile  string
}

func (t TLS) enabled() bool { return t.CertFile != "" && t.KeyFile != "" }

// Serve runs handler on bind until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, bind string, handler http.Handler, tls TLS) error {
	server := http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute * 5,
	}
	err := make(chan error, 1)
	done := make(chan struct{})
	go serveInBackground(ctx, &server, tls, err, done)
	<-done
	return <-err
}

func serveInBackground(ctx context.Context, server *http.Server, tls TLS, firstErr chan<- error, done chan<- struct{}) {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Bool("tls", tls.enabled()).Logger()
	defer close(done)
	serverCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		defer close(firstErr)
		log.Info().Msg("Starting HTTP server")
		var err error
		if tls.enabled() {
			err = server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			return
		} else if err != nil {
			select {
			case firstErr <- err:
			default:
			}
			return
		}
	}()
	select {
	case <-serverCtx.Done():
	case <-ctx.Done():
		log.Info().Msg("Initiating shutdown process")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Minute)
		defer cancelShutdown()
		server.Shutdown(shutdownCtx)
		log.Info().Msg("Shutdown completed")
	}
}
