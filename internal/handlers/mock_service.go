package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/models"
	"github.com/chefwhisper/recipe-viewer/internal/registry"
	"github.com/chefwhisper/recipe-viewer/internal/service"
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

type mockEventLog struct {
	resp     []models.LogEntry
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.LogEntry, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockReader struct {
	timers []models.Timer
}

func (m *mockReader) Get(id string) (models.Timer, bool) {
	for _, t := range m.timers {
		if t.ID == id {
			return t, true
		}
	}
	return models.Timer{}, false
}
func (m *mockReader) GetAll() []models.Timer { return m.timers }

// memSnapshotRepo keeps snapshots in memory; enough to back a real registry
// in handler tests.
type memSnapshotRepo struct {
	mu    sync.Mutex
	snaps []models.Timer
}

func (m *memSnapshotRepo) Save(_ context.Context, snaps []models.Timer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append([]models.Timer(nil), snaps...)
	return nil
}

func (m *memSnapshotRepo) Load(context.Context) ([]models.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snaps, nil
}

// ---- Shared Test Helpers ----

// newTimerBackend boots a real registry on an in-memory bus, so timer routes
// are exercised end to end: HTTP -> client -> bus -> registry.
func newTimerBackend(t *testing.T) (*service.Service, *bus.Bus) {
	t.Helper()
	b := bus.New(nil)
	reg := registry.New(b, &memSnapshotRepo{}, logger.Get(logger.ErrorLevel))
	if err := reg.Init(context.Background()); err != nil {
		t.Fatalf("registry init: %v", err)
	}
	t.Cleanup(reg.Close)

	return &service.Service{
		Timers:        registry.NewClient(b),
		Reader:        reg,
		EventLog:      &mockEventLog{},
		Authorization: &mockAuth{parseID: 1},
	}, b
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, NewHub(nil), nil)
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
