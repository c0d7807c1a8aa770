package services

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/playctl/internal/shared"
)

// Refresher forces a token refresh. Implemented by the auth store.
type Refresher interface {
	RefreshIfNeeded(ctx context.Context, force bool) (bool, error)
}

// TransportOptions configures [NewHTTPClient].
type TransportOptions struct {
	RequestsPerSecond float64           // zero disables client-side limiting
	Base              http.RoundTripper // defaults to http.DefaultTransport
	Logger            *log.Logger
}

// NewHTTPClient builds the client used for Web API calls.
//
// Requests are authorized with tokens from source. A 401 response triggers one forced refresh
// through refresher and a single retry of the request with the new token. Requests are paced by a
// token bucket when RequestsPerSecond is set.
func NewHTTPClient(source oauth2.TokenSource, refresher Refresher, opts TransportOptions) *http.Client {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if opts.RequestsPerSecond > 0 {
		base = &limitTransport{
			limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
			next:    base,
		}
	}

	return &http.Client{
		Transport: &refreshTransport{
			next:      &oauth2.Transport{Source: source, Base: base},
			refresher: refresher,
			logger:    shared.WithLogger(opts.Logger, "component", "transport"),
		},
	}
}

var errNoReplay = errors.New("request body cannot be replayed")

type limitTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *limitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

type refreshTransport struct {
	next      http.RoundTripper
	refresher Refresher
	logger    *log.Logger
}

func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || t.refresher == nil {
		return resp, err
	}

	retry, err := rewind(req)
	if err != nil {
		return resp, nil
	}

	t.logger.Debug("unauthorized, forcing token refresh", "url", req.URL.Path)
	if ok, rerr := t.refresher.RefreshIfNeeded(req.Context(), true); !ok {
		t.logger.Warn("token refresh after 401 failed", "error", rerr)
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return t.next.RoundTrip(retry)
}

// rewind clones req with a fresh body so it can be sent again.
func rewind(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, errNoReplay
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry.Body = body
	return retry, nil
}
