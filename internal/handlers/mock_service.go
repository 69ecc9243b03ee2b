package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"cputempwidget/internal/models"
	"cputempwidget/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitor struct {
	mu sync.Mutex

	startErr        error
	reconfigureErr  error
	snapshot        models.Snapshot
	startCalled     int
	stopCalled      int
	lastReconfigure service.ReconfigureParams

	subCh     chan models.Snapshot
	subCancel int
}

func (m *mockMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalled++
	return m.startErr
}

func (m *mockMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled++
}

func (m *mockMonitor) Reconfigure(p service.ReconfigureParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReconfigure = p
	return m.reconfigureErr
}

func (m *mockMonitor) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Subscribe hands out one shared channel preloaded with the current snapshot,
// mirroring the real monitor's immediate delivery.
func (m *mockMonitor) Subscribe() (<-chan models.Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subCh == nil {
		m.subCh = make(chan models.Snapshot, 8)
	}
	m.subCh <- m.snapshot
	return m.subCh, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subCancel++
	}
}

func (m *mockMonitor) push(snap models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snap
	if m.subCh != nil {
		m.subCh <- snap
	}
}

type mockSettings struct {
	getResp    models.WidgetSettings
	getErr     error
	updateResp models.WidgetSettings
	updateErr  error
	lastUpdate service.SettingsParams
	getCalls   int
}

func (m *mockSettings) Get(ctx context.Context) (models.WidgetSettings, error) {
	m.getCalls++
	return m.getResp, m.getErr
}

func (m *mockSettings) Update(ctx context.Context, p service.SettingsParams) (models.WidgetSettings, error) {
	m.lastUpdate = p
	return m.updateResp, m.updateErr
}

type mockEventLog struct {
	resp     []models.WidgetEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
	calls    int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.WidgetEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func doRequest(r *gin.Engine, method, target string, body *string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(*body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
