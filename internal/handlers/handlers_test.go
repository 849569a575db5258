package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"clinic_queue/internal/auth"
	"clinic_queue/internal/handlers"
	"clinic_queue/internal/metrics"
	"clinic_queue/internal/models"
	"clinic_queue/internal/patient"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/response"
	"clinic_queue/internal/storage/storagetest"
	"clinic_queue/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recorder struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recorder) Publish(_ context.Context, ev ws.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

type api struct {
	db     *gorm.DB
	router *gin.Engine
	events *recorder
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := storagetest.Open(t)
	reg := prometheus.NewRegistry()
	log := zerolog.Nop()

	hub := ws.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	rec := &recorder{}
	h := handlers.New(
		db,
		queue.NewService(db, metrics.NewQueueMetrics(reg)),
		patient.NewService(db),
		auth.NewIssuer("access-secret", "refresh-secret"),
		rec,
		log,
	)
	return &api{
		db:     db,
		router: handlers.NewRouter(h, hub, handlers.RouterOptions{Gatherer: reg}),
		events: rec,
	}
}

func (a *api) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// seedUser stores an account directly, the way clinicctl provisions the first clerk.
func (a *api) seedUser(t *testing.T, role, email string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, a.db.Create(&models.User{
		Name: role, Email: email, PasswordHash: string(hash), Role: models.Role(role),
	}).Error)
}

func (a *api) login(t *testing.T, role string) string {
	t.Helper()
	email := strings.ToLower(role) + "@clinic.test"
	a.seedUser(t, role, email)
	return a.loginAs(t, email, role)
}

func (a *api) loginAs(t *testing.T, email, role string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tokens response.TokenResponse
	decode(t, w, &tokens)
	require.Equal(t, role, tokens.Role)
	return tokens.AccessToken
}

func (a *api) createPatient(t *testing.T, token, name string) uint {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/patients", token, gin.H{"name": name, "image_url": "https://img.test/" + name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p response.PatientResponse
	decode(t, w, &p)
	return p.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorResponse
	decode(t, w, &body)
	return body.Code
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	clerk := a.login(t, "CLERK")

	t.Run("duplicate email", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/auth/register", clerk, gin.H{
			"name": "Other", "email": "CLERK@clinic.test", "password": "secret123", "role": "CLERK",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "EMAIL_EXISTS", errorCode(t, w))
	})

	t.Run("unknown role", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/auth/register", clerk, gin.H{
			"name": "Nurse", "email": "nurse@clinic.test", "password": "secret123", "role": "NURSE",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("wrong password", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "CLERK@clinic.test", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
	})

	t.Run("refresh", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "clerk@clinic.test", "password": "secret123"})
		require.Equal(t, http.StatusOK, w.Code)
		var tokens response.TokenResponse
		decode(t, w, &tokens)

		w = a.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": tokens.RefreshToken})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = a.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": tokens.AccessToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_REFRESH_TOKEN", errorCode(t, w))
	})
}

func TestRegisterIsClerkOnly(t *testing.T) {
	a := newAPI(t)
	doctor := a.login(t, "DOCTOR")
	clerk := a.login(t, "CLERK")
	account := gin.H{"name": "Dr. Cruz", "email": "cruz@clinic.test", "password": "secret123", "role": "DOCTOR"}

	w := a.do(t, http.MethodPost, "/auth/register", "", account)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/auth/register", doctor, account)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN_ROLE", errorCode(t, w))

	w = a.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "cruz@clinic.test", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "rejected registrations must not create accounts")

	w = a.do(t, http.MethodPost, "/auth/register", clerk, account)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a.loginAs(t, "cruz@clinic.test", "DOCTOR")
}

func TestRoleGates(t *testing.T) {
	a := newAPI(t)
	doctor := a.login(t, "DOCTOR")

	w := a.do(t, http.MethodGet, "/api/queues/active", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/api/queues/1/entries", doctor, gin.H{"patient_id": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN_ROLE", errorCode(t, w))

	w = a.do(t, http.MethodPost, "/api/patients", doctor, gin.H{"name": "Ana"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodGet, "/api/queues/active", doctor, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueueLifecycle(t *testing.T) {
	a := newAPI(t)
	clerk := a.login(t, "CLERK")
	doctor := a.login(t, "DOCTOR")

	w := a.do(t, http.MethodGet, "/api/queues/active", clerk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active response.QueueIDResponse
	decode(t, w, &active)
	base := fmt.Sprintf("/api/queues/%d", active.QueueID)

	ana := a.createPatient(t, clerk, "Ana")
	ben := a.createPatient(t, clerk, "Ben")
	cid := a.createPatient(t, clerk, "Cid")
	for _, pid := range []uint{ana, ben, cid} {
		w = a.do(t, http.MethodPost, base+"/entries", clerk, gin.H{"patient_id": pid})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = a.do(t, http.MethodPost, base+"/entries", clerk, gin.H{"patient_id": ana})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_IN_QUEUE", errorCode(t, w))

	w = a.do(t, http.MethodGet, base+"/entries", doctor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []response.EntryResponse
	decode(t, w, &entries)
	require.Len(t, entries, 3)
	assert.Equal(t, "Ana", entries[0].Patient.Name)
	assert.Equal(t, "https://img.test/Ana", entries[0].Patient.ImageURL)

	// Cid to the front.
	w = a.do(t, http.MethodPut, base+"/order", clerk, gin.H{"entries": []gin.H{
		{"id": entries[2].ID, "position": 1},
		{"id": entries[0].ID, "position": 2},
		{"id": entries[1].ID, "position": 3},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, base+"/state", doctor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state queue.State
	decode(t, w, &state)
	require.NotNil(t, state.PatientID)
	assert.Equal(t, cid, *state.PatientID)
	assert.Equal(t, "WAITING", string(*state.Status))
	assert.Equal(t, int64(3), state.RemainingWaitingCount)
	assert.Equal(t, queue.MsgWaitingPatient, state.Message)

	w = a.do(t, http.MethodPost, base+"/advance", doctor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var adv queue.AdvanceResult
	decode(t, w, &adv)
	require.NotNil(t, adv.PatientID)
	assert.Equal(t, cid, *adv.PatientID)
	assert.Equal(t, queue.MsgFirstPatient, adv.Message)

	w = a.do(t, http.MethodPost, base+"/advance", clerk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &adv)
	assert.Equal(t, ana, *adv.PatientID)
	assert.Equal(t, queue.MsgNextPatient, adv.Message)

	w = a.do(t, http.MethodGet, base+"/state", doctor, nil)
	decode(t, w, &state)
	assert.Equal(t, ana, *state.PatientID)
	assert.Equal(t, "IN_PROGRESS", string(*state.Status))
	assert.Equal(t, int64(1), state.RemainingWaitingCount)

	assert.Equal(t, []string{
		ws.EventPatientAdded, ws.EventPatientAdded, ws.EventPatientAdded,
		ws.EventQueueReordered,
		ws.EventPatientAdvanced, ws.EventPatientAdvanced,
	}, a.events.types())
}

func TestQueueErrors(t *testing.T) {
	a := newAPI(t)
	clerk := a.login(t, "CLERK")

	w := a.do(t, http.MethodGet, "/api/queues/active", clerk, nil)
	var active response.QueueIDResponse
	decode(t, w, &active)
	base := fmt.Sprintf("/api/queues/%d", active.QueueID)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"non numeric id", http.MethodGet, "/api/queues/abc/state", nil, http.StatusBadRequest, "INVALID_QUEUE_ID"},
		{"unknown queue advance", http.MethodPost, "/api/queues/999/advance", nil, http.StatusNotFound, "QUEUE_NOT_FOUND"},
		{"unknown queue add", http.MethodPost, "/api/queues/999/entries", gin.H{"patient_id": 1}, http.StatusNotFound, "QUEUE_NOT_FOUND"},
		{"unknown patient", http.MethodPost, base + "/entries", gin.H{"patient_id": 42}, http.StatusNotFound, "PATIENT_NOT_FOUND"},
		{"missing patient id", http.MethodPost, base + "/entries", gin.H{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown entry", http.MethodPut, base + "/order", gin.H{"entries": []gin.H{{"id": 77, "position": 1}}}, http.StatusNotFound, "ENTRY_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, tt.method, tt.path, clerk, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	t.Run("ordering with a gap", func(t *testing.T) {
		pid := a.createPatient(t, clerk, "Gap")
		w := a.do(t, http.MethodPost, base+"/entries", clerk, gin.H{"patient_id": pid})
		require.Equal(t, http.StatusCreated, w.Code)
		var entry response.EntryResponse
		decode(t, w, &entry)

		w = a.do(t, http.MethodPut, base+"/order", clerk, gin.H{"entries": []gin.H{{"id": entry.ID, "position": 5}}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_ORDERING", errorCode(t, w))
	})
}

func TestPatients(t *testing.T) {
	a := newAPI(t)
	clerk := a.login(t, "CLERK")

	w := a.do(t, http.MethodPost, "/api/patients", clerk, gin.H{
		"name": "Maria Santos", "email": "maria@example.com", "phone": "0917", "birthday": "1990-04-12", "sex": "Female",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created response.PatientResponse
	decode(t, w, &created)
	require.NotNil(t, created.Birthday)
	assert.Equal(t, "1990-04-12", *created.Birthday)
	assert.True(t, created.IsNewPatient)

	w = a.do(t, http.MethodPost, "/api/patients", clerk, gin.H{"name": "Maria Santos"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PATIENT_EXISTS", errorCode(t, w))

	w = a.do(t, http.MethodPost, "/api/patients", clerk, gin.H{"name": "Future", "birthday": "2999-01-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = a.do(t, http.MethodPost, "/api/patients", clerk, gin.H{"name": "Bad Date", "birthday": "12/04/1990"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/patients/search?q=MARIA", clerk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []response.PatientResponse
	decode(t, w, &found)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/patients/%d", created.ID), clerk, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/patients/404", clerk, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PATIENT_NOT_FOUND", errorCode(t, w))
}

func TestSystemEndpoints(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	clerk := a.login(t, "CLERK")
	w = a.do(t, http.MethodGet, "/api/queues/active", clerk, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic_queue_operations_total")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
