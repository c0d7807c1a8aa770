package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/desertthunder/playctl/internal/models"
)

// Request is one call received by [FakeSpotify].
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Auth   string
}

// Decode unmarshals the request body into v.
func (r Request) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("failed to decode %s %s body %q: %v", r.Method, r.Path, r.Body, err)
	}
}

// FakeSpotify is an in-process Web API.
//
// Every request is recorded. Statuses queued with [FakeSpotify.QueueStatus] are consumed in
// order per endpoint; once an endpoint's queue is empty it answers normally.
type FakeSpotify struct {
	*httptest.Server

	mu          sync.Mutex
	user        models.User
	devices     []models.RemoteDevice
	playerState string
	statuses    map[string][]int
	requests    []Request
}

// NewFakeSpotify starts a fake Web API that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()
	f := &FakeSpotify{
		user:     models.User{ID: "user-1", DisplayName: "Test Listener", Email: "listener@example.com", Product: "premium"},
		statuses: map[string][]int{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// BaseURL is the API root to hand to the service under test.
func (f *FakeSpotify) BaseURL() string {
	return f.URL + "/v1/"
}

// SetUser replaces the profile returned by GET /v1/me.
func (f *FakeSpotify) SetUser(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = u
}

// SetDevices replaces the device list.
func (f *FakeSpotify) SetDevices(devices ...models.RemoteDevice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = devices
}

// SetPlayerState sets the raw JSON returned by GET /v1/me/player. Empty means 204.
func (f *FakeSpotify) SetPlayerState(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playerState = raw
}

// QueueStatus makes the next len(statuses) calls to method+path answer with the given statuses.
func (f *FakeSpotify) QueueStatus(method, path string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.statuses[key] = append(f.statuses[key], statuses...)
}

// Requests returns the recorded calls to method+path, or every call when method is empty.
func (f *FakeSpotify) Requests(method, path string) []Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Request
	for _, r := range f.requests {
		if method == "" || (r.Method == method && r.Path == path) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of calls to method+path.
func (f *FakeSpotify) Count(method, path string) int {
	return len(f.Requests(method, path))
}

func (f *FakeSpotify) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
		Auth:   r.Header.Get("Authorization"),
	})

	key := r.Method + " " + r.URL.Path
	status := 0
	if queue := f.statuses[key]; len(queue) > 0 {
		status, f.statuses[key] = queue[0], queue[1:]
	}
	user, devices, state := f.user, f.devices, f.playerState
	f.mu.Unlock()

	if status >= 300 {
		writeError(w, status)
		return
	}

	switch key {
	case "GET /v1/me":
		writeJSON(w, map[string]any{
			"id":           user.ID,
			"display_name": user.DisplayName,
			"email":        user.Email,
			"product":      user.Product,
		})
	case "GET /v1/me/player/devices":
		list := make([]map[string]any, 0, len(devices))
		for _, d := range devices {
			list = append(list, map[string]any{
				"id":             d.ID,
				"name":           d.Name,
				"type":           d.Type,
				"is_active":      d.Active,
				"is_restricted":  d.Restricted,
				"volume_percent": d.Volume,
			})
		}
		writeJSON(w, map[string]any{"devices": list})
	case "GET /v1/me/player":
		if state == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, state)
	default:
		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"status":%d,"message":%q}}`, status, http.StatusText(status))
}
