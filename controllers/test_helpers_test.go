// file: controllers/test_helpers_test.go
package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"go-event-checkin/i18n"
	"go-event-checkin/services"
	"go-event-checkin/store/memory"
	"go-event-checkin/worker"
)

type nopMessenger struct{}

func (nopMessenger) Publish(string, string, any) {}

type inlineQueue struct{}

func (inlineQueue) Submit(_ string, task worker.Task) bool {
	task(context.Background())
	return true
}

// testApp is the full API over the memory store.
type testApp struct {
	router *gin.Engine
	store  *memory.Store
}

// setupTestRouter creates a Gin engine with session middleware and every route.
func setupTestRouter(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("testsession", cookie.NewStore([]byte("test-secret"))))

	st := memory.New()
	tr := i18n.NewTranslator("en")
	agg := services.NewAggregator(st, nopMessenger{}, nil, inlineQueue{}, 20)
	checkpoints := services.NewCheckpointService(st, nopMessenger{}, agg)

	RegisterRoutes(router, NewHandlers(Services{
		Accounts:     services.NewAccountService(st),
		Checkpoints:  checkpoints,
		Scans:        services.NewScanService(st, agg, nil, tr, testclock.NewClock(epoch)),
		Participants: services.NewParticipantService(st, checkpoints, agg),
		Tickets:      services.NewTicketService(st),
		Aggregator:   agg,
		Translator:   tr,
	}))
	return &testApp{router: router, store: st}
}

// do sends a JSON request and returns the recorder.
func (a *testApp) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// sessionCookie extracts the session cookie from a login response.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "testsession" {
			return c
		}
	}
	t.Fatalf("no session cookie in response (status %d): %s", w.Code, w.Body.String())
	return nil
}

// signup registers an organizer and returns their session.
func (a *testApp) signup(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := a.do(http.MethodPost, "/api/auth/signup", gin.H{"name": "Olive", "email": email, "password": "correct-horse"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

// decode unmarshals the response body into v.
func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}
