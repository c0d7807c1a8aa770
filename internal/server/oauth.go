package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playctl/internal/shared"
)

// Exchanger trades an authorization code for a session. Implemented by the auth store.
type Exchanger interface {
	Exchange(ctx context.Context, code string) error
}

// OAuthHandler serves the authorization code callback. It accepts exactly one callback; the
// outcome is delivered on [OAuthHandler.Result].
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	result    chan error
	once      sync.Once
	mu        sync.Mutex
	hit       bool
}

// NewOAuthHandler creates a handler for path that expects state and exchanges the code through
// exchanger. An empty path means "/callback".
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      path,
		result:    make(chan error, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the state, then exchanges the code.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(shared.ErrStateMismatch)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(fmt.Errorf("%w: %s %s", shared.ErrAuth, q.Get("error"), q.Get("error_description")))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.exchanger.Exchange(r.Context(), code); err != nil {
		h.send(err)
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	h.send(nil)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Result receives nil on a successful exchange or the failure, then is closed.
func (h *OAuthHandler) Result() <-chan error {
	return h.result
}

func (h *OAuthHandler) send(err error) {
	h.once.Do(func() {
		h.result <- err
		close(h.result)
	})
}

// CallbackServer runs an [OAuthHandler] on a local listener for the duration of one login.
type CallbackServer struct {
	handler  *OAuthHandler
	srv      *http.Server
	listener net.Listener
	errs     chan error
	logger   *log.Logger
}

// NewCallbackServer creates a server for handler on addr, with request logging.
func NewCallbackServer(addr string, handler *OAuthHandler, logger *log.Logger) *CallbackServer {
	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(handler)

	return &CallbackServer{
		handler: handler,
		srv:     &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second},
		errs:    make(chan error, 1),
		logger:  shared.WithLogger(logger, "component", "server"),
	}
}

// Start binds the listener and serves in the background. Bind errors are returned directly.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	s.logger.Info("callback server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return s.srv.Addr
	}
	return s.listener.Addr().String()
}

// Wait blocks until the callback completes, the server fails or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) error {
	select {
	case err := <-s.handler.Result():
		return err
	case err := <-s.errs:
		return fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for authorization: %w", shared.ErrTimeout, ctx.Err())
	}
}

// Shutdown stops the server gracefully.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>playctl</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; padding: 2rem; }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Logged in</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
