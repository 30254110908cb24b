// Package oauth provides the OAuth callback server and browser launcher.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
)

// DefaultPort is the default callback port. Chosen away from the common
// development-server ports (3000, 8080) to avoid conflicts.
const DefaultPort = 3456

// CallbackServer handles the OAuth redirect for one authorization
// attempt. It starts a local HTTP server, delivers the first matching
// request to a single waiter, and answers everything after that with a
// 404. Create a fresh server to re-arm for a subsequent attempt.
type CallbackServer struct {
	mu         sync.Mutex
	port       int
	resolved   bool
	closed     bool
	resultChan chan domain.CallbackResult
	errChan    chan error
	server     *http.Server
	listener   net.Listener
}

var _ driven.CallbackListener = (*CallbackServer)(nil)

// NewCallbackServer creates a callback server for the given port.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:       port,
		resultChan: make(chan domain.CallbackResult, 1),
		errChan:    make(chan error, 1),
	}
}

// Start binds the callback server on the configured port. The port is
// fixed by the redirect URI registered with Monzo, so a bind failure is
// a *domain.PortInUseError rather than a silent fallback.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return &domain.PortInUseError{Port: s.port}
		}
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// The goroutine uses locals; Shutdown may run before it is
	// scheduled and must not race on the fields.
	server := s.server
	go func() {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// handleCallback delivers the redirect's query parameters to the waiter.
// The server resolves at most once; a browser refresh after resolution
// gets a 404 rather than re-resolving a settled wait.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	s.resolved = true
	s.mu.Unlock()

	q := r.URL.Query()
	result := domain.CallbackResult{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		ErrorCode:        q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	w.Header().Set("Content-Type", "text/html")
	switch {
	case result.ErrorCode != "":
		fmt.Fprint(w, callbackHTML(
			fmt.Sprintf("Authorization failed: %s", html.EscapeString(result.ErrorCode)),
			html.EscapeString(result.ErrorDescription)))
	case result.Code == "":
		fmt.Fprint(w, callbackHTML("Authorization failed: no code received", ""))
	default:
		fmt.Fprint(w, callbackHTML("Authorization successful!",
			"You can close this window and return to the terminal."))
	}

	select {
	case s.resultChan <- result:
	default:
	}
}

// Wait blocks until the redirect arrives, the server fails, or ctx is
// cancelled. No internal timeout is enforced; the user may take as long
// as they like to approve in their banking app.
func (s *CallbackServer) Wait(ctx context.Context) (domain.CallbackResult, error) {
	select {
	case result := <-s.resultChan:
		return result, nil
	case err := <-s.errChan:
		return domain.CallbackResult{}, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return domain.CallbackResult{}, ctx.Err()
	}
}

// Shutdown releases the port. Idempotent. The listener is closed
// directly so the port is free again by the time Shutdown returns,
// even if the serve goroutine has not run yet.
func (s *CallbackServer) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.server == nil {
		return nil
	}
	s.closed = true

	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Port returns the port the server listens on.
func (s *CallbackServer) Port() int {
	return s.port
}

// RedirectURI returns the redirect URI for this callback server. It
// must match the URI registered with the Monzo OAuth client.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.port)
}

//nolint:misspell // CSS properties use American spelling
func callbackHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>actual-monzo</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
            box-shadow: 0 4px 24px rgba(0,0,0,0.08);
        }
        h1 { color: #14233C; margin: 0 0 8px 0; font-size: 24px; }
        p { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, title, message)
}
