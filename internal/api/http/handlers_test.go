package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aegis-lab/bridge/internal/domain/launcher"
)

type mockTriggerer struct {
	mock.Mock
}

func (m *mockTriggerer) Trigger(ctx context.Context) (launcher.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(launcher.Result), args.Error(1)
}

func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.GET("/status", h.Status)
	r.GET("/print", h.Trigger)
	r.NoRoute(h.UnknownCommand)
	r.NoMethod(h.MethodNotAllowed)
	return r
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestStatus(t *testing.T) {
	h := NewHandlers(new(mockTriggerer), "Bambu Lab P1S", nil)

	w := get(newTestRouter(h), http.MethodGet, "/status")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"ready","printer":"Bambu Lab P1S"}`, w.Body.String())
}

func TestTrigger(t *testing.T) {
	tests := []struct {
		name   string
		result launcher.Result
		err    error
		want   CommandResponse
	}{
		{
			name:   "focused",
			result: launcher.Result{Outcome: launcher.OutcomeFocused, Probe: launcher.ProbeFocused, PID: 12},
			want:   CommandResponse{Success: true, Message: "Focused"},
		},
		{
			name:   "launched",
			result: launcher.Result{Outcome: launcher.OutcomeLaunched, Probe: launcher.ProbeNotRunning, PID: 13},
			want:   CommandResponse{Success: true, Message: "Launched"},
		},
		{
			name:   "executable missing",
			result: launcher.Result{Outcome: launcher.OutcomeNotFound},
			err:    fmt.Errorf("%w: /opt/bambu", launcher.ErrExecutableNotFound),
			want:   CommandResponse{Success: false, Message: "Executable not found."},
		},
		{
			name:   "query failure carries error text",
			result: launcher.Result{Outcome: launcher.OutcomeError},
			err:    &launcher.ActionError{Op: "query", Err: errors.New("snapshot failed")},
			want:   CommandResponse{Success: false, Message: "query: snapshot failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trig := new(mockTriggerer)
			trig.On("Trigger", mock.Anything).Return(tt.result, tt.err).Once()
			h := NewHandlers(trig, "Bambu Lab P1S", nil)

			w := get(newTestRouter(h), http.MethodGet, "/print")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t,
				fmt.Sprintf(`{"success":%t,"message":%q}`, tt.want.Success, tt.want.Message),
				w.Body.String())
			trig.AssertExpectations(t)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	trig := new(mockTriggerer)
	r := newTestRouter(NewHandlers(trig, "Bambu Lab P1S", nil))

	for _, path := range []string{"/", "/foo", "/print/extra", "/STATUS"} {
		w := get(r, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"success":false,"message":"Unknown command"}`, w.Body.String(), path)
	}
	trig.AssertNotCalled(t, "Trigger", mock.Anything)
}

func TestMethodNotAllowed(t *testing.T) {
	trig := new(mockTriggerer)
	r := newTestRouter(NewHandlers(trig, "Bambu Lab P1S", nil))

	w := get(r, http.MethodPost, "/print")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Method not allowed"}`, w.Body.String())
	trig.AssertNotCalled(t, "Trigger", mock.Anything)
}
