package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	agentHandler "github.com/jwalitptl/hairline-crm/internal/handler/agent"
	authHandler "github.com/jwalitptl/hairline-crm/internal/handler/auth"
	employeeHandler "github.com/jwalitptl/hairline-crm/internal/handler/employee"
	healthHandler "github.com/jwalitptl/hairline-crm/internal/handler/health"
	patientHandler "github.com/jwalitptl/hairline-crm/internal/handler/patient"
	reportHandler "github.com/jwalitptl/hairline-crm/internal/handler/report"
	"github.com/jwalitptl/hairline-crm/internal/middleware"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository/memory"
	authService "github.com/jwalitptl/hairline-crm/internal/service/auth"
	dashboardService "github.com/jwalitptl/hairline-crm/internal/service/dashboard"
	"github.com/jwalitptl/hairline-crm/internal/service/export"
	patientService "github.com/jwalitptl/hairline-crm/internal/service/patient"
	reportService "github.com/jwalitptl/hairline-crm/internal/service/report"
	"github.com/jwalitptl/hairline-crm/pkg/auth"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
	"github.com/jwalitptl/hairline-crm/pkg/security"
)

type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r Response) IsSuccess() bool {
	return r.Status == "success"
}

type testServer struct {
	engine   *gin.Engine
	patients *memory.PatientRepository
	auth     *authService.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	patients := memory.NewPatientRepository()
	users := memory.NewUserRepository()
	m := metrics.NewMetrics("test")

	authSvc := authService.NewService(
		users,
		auth.NewJWTService("router-test-secret", time.Hour),
		security.NewBcryptHasher(bcrypt.MinCost),
		authService.Options{MaxLoginAttempts: 3, LockoutDuration: time.Minute},
	)
	patientSvc := patientService.NewService(patients, model.Workflow{Strict: true}, nil)
	reports := reportService.NewService(patients, users, m, time.UTC)

	r := NewRouter(
		middleware.NewAuthMiddleware(authSvc, "token"),
		Handlers{
			Health:   healthHandler.NewHandler(patients, m),
			Auth:     authHandler.NewHandler(authSvc, authHandler.CookieConfig{Name: "token"}),
			Patient:  patientHandler.NewHandler(patientSvc, dashboardService.NewService(patients, time.UTC)),
			Agent:    agentHandler.NewHandler(reports),
			Employee: employeeHandler.NewHandler(reports),
			Report:   reportHandler.NewHandler(reports),
		},
		m,
		RouterConfig{
			Mode:         gin.TestMode,
			RateLimitOff: true,
			Timeout:      5 * time.Second,
			CORSConfig:   middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()
	return &testServer{engine: r.Engine(), patients: patients, auth: authSvc}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// signIn creates a user with role and returns their session cookie. Staff
// sign up through the public route; admins are seeded the way crmctl does it.
func (s *testServer) signIn(t *testing.T, email string, role model.Role) *http.Cookie {
	t.Helper()
	if role == model.RoleAdmin {
		_, err := s.auth.Register(context.Background(), &model.RegisterRequest{
			Name:     "Test Admin",
			Email:    email,
			Phone:    "9000000000",
			Password: "secret-password",
			Role:     role,
		})
		require.NoError(t, err)
	} else {
		rec := s.do(t, http.MethodPost, "/auth/register", map[string]interface{}{
			"name":     "Test " + string(role),
			"email":    email,
			"phone":    "9000000000",
			"password": "secret-password",
			"role":     role,
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	return s.login(t, email)
}

func (s *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": "secret-password",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	register := map[string]interface{}{
		"name":     "Asha",
		"email":    "asha@clinic.in",
		"phone":    "9000000000",
		"password": "secret-password",
		"role":     "Agent",
	}
	rec := s.do(t, http.MethodPost, "/auth/register", register, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/register", register, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	register["role"] = "Surgeon"
	rec = s.do(t, http.MethodPost, "/auth/register", register, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "asha@clinic.in", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", decode(t, rec, nil).Status)

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "asha@clinic.in", "password": "secret-password"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var me model.User
	rec = s.do(t, http.MethodGet, "/auth/me", nil, cookies[0])
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &me)
	assert.Equal(t, "asha@clinic.in", me.Email)
	assert.Equal(t, model.RoleAgent, me.Role)

	rec = s.do(t, http.MethodPost, "/auth/logout", nil, cookies[0])
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.True(t, rec.Result().Cookies()[0].MaxAge < 0)
}

func TestAdminAccountsRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	newAdmin := map[string]interface{}{
		"name":     "Intruder",
		"email":    "intruder@clinic.in",
		"phone":    "9000000000",
		"password": "secret-password",
		"role":     "Admin",
	}

	rec := s.do(t, http.MethodPost, "/auth/register", newAdmin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "intruder@clinic.in", "password": "secret-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/users", newAdmin, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	agent := s.signIn(t, "agent@clinic.in", model.RoleAgent)
	rec = s.do(t, http.MethodPost, "/auth/users", newAdmin, agent)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodGet, "/employees", nil, agent)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := s.signIn(t, "admin@clinic.in", model.RoleAdmin)
	newAdmin["email"] = "second-admin@clinic.in"
	rec = s.do(t, http.MethodPost, "/auth/users", newAdmin, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	second := s.login(t, "second-admin@clinic.in")
	rec = s.do(t, http.MethodGet, "/employees", nil, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginLockout(t *testing.T) {
	s := newTestServer(t)
	s.signIn(t, "lock@clinic.in", model.RoleAgent)

	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "lock@clinic.in", "password": "nope-nope"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "lock@clinic.in", "password": "secret-password"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSessionRequired(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/auth/me", "/patients/get-patient", "/agents", "/employees", "/reports?type=status"} {
		rec := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := s.do(t, http.MethodGet, "/patients/get-patient", nil, &http.Cookie{Name: "token", Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPatientFlow(t *testing.T) {
	s := newTestServer(t)
	session := s.signIn(t, "counsellor@clinic.in", model.RoleCounsellor)

	rec := s.do(t, http.MethodPost, "/patients/register", map[string]interface{}{
		"personal": map[string]interface{}{"phone": "9811122233"},
	}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var created model.Patient
	rec = s.do(t, http.MethodPost, "/patients/register", map[string]interface{}{
		"personal": map[string]interface{}{
			"name":      "Sanjay Verma",
			"phone":     "9811122233",
			"location":  "Delhi",
			"visitDate": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		},
		"counselling": map[string]interface{}{"counsellor": "Dr. A"},
		"payments":    map[string]interface{}{"totalQuoted": 150000},
	}, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(t, rec, &created)
	require.False(t, created.ID.IsZero())
	assert.Equal(t, model.StatusNew, created.Ops.Status)
	assert.Equal(t, 150000.0, created.Payments.PendingAmount)
	id := created.ID.Hex()

	var list []model.Patient
	rec = s.do(t, http.MethodGet, "/patients/get-patient?location=Delhi", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = s.do(t, http.MethodGet, "/patients/get-patient?location=Mumbai", nil, session)
	list = nil
	decode(t, rec, &list)
	assert.Empty(t, list)

	rec = s.do(t, http.MethodGet, "/patients/patient-data", nil, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/patients/patient-data?id=not-an-id", nil, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/patients/patient-data?id=65f000000000000000000000", nil, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var fetched model.Patient
	rec = s.do(t, http.MethodGet, "/patients/patient-data?id="+id, nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &fetched)
	assert.Equal(t, "Sanjay Verma", fetched.Personal.Name)

	var moved model.Patient
	rec = s.do(t, http.MethodPatch, "/patients/status?id="+id, map[string]string{"status": "READY"}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &moved)
	assert.Equal(t, model.StatusReady, moved.Ops.Status)

	rec = s.do(t, http.MethodPatch, "/patients/status?id="+id, map[string]string{"status": "NEW"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var paid model.Patient
	rec = s.do(t, http.MethodPost, "/patients/transactions?id="+id, map[string]interface{}{
		"method": "UPI",
		"amount": 20000,
	}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &paid)
	assert.Equal(t, 20000.0, paid.Payments.AmountReceived)
	assert.Equal(t, 130000.0, paid.Payments.PendingAmount)
	assert.Len(t, paid.Payments.Transactions, 1)

	rec = s.do(t, http.MethodPost, "/patients/transactions?id="+id, map[string]interface{}{"method": "Gold", "amount": 1}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	edit := paid
	edit.Surgery.GraftsImplanted = 2800
	var updated model.Patient
	rec = s.do(t, http.MethodPut, "/patients/update?id="+id, edit, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &updated)
	assert.Equal(t, 2800, updated.Surgery.GraftsImplanted)
	assert.Equal(t, model.StatusReady, updated.Ops.Status)

	now := time.Now().UTC()
	var dash model.Dashboard
	rec = s.do(t, http.MethodPost, "/patients/dashboard", map[string]interface{}{
		"branch": "Delhi",
		"from":   now.Add(-24 * time.Hour),
		"to":     now.Add(time.Hour),
	}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &dash)
	assert.Equal(t, 1, dash.Counts.Appointments)
	assert.Equal(t, 20000.0, dash.AmountReceived)
	assert.Len(t, dash.Last7Days.ByDay, 7)
	assert.Len(t, dash.Cards, 5)

	rec = s.do(t, http.MethodPost, "/patients/dashboard", map[string]interface{}{"branch": "Delhi"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	counsellor := s.signIn(t, "c@clinic.in", model.RoleCounsellor)
	admin := s.signIn(t, "admin@clinic.in", model.RoleAdmin)

	rec := s.do(t, http.MethodGet, "/employees", nil, counsellor)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodGet, "/reports?type=status", nil, counsellor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/agents?filter=week", nil, counsellor)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/agents?filter=fortnight", nil, counsellor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var overview model.EmployeeOverview
	rec = s.do(t, http.MethodGet, "/employees", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &overview)
	assert.Equal(t, 0, overview.Totals.TotalPatients)

	var table model.Table
	rec = s.do(t, http.MethodGet, "/reports?type=status&period=month", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &table)
	assert.Len(t, table.Rows, len(model.Statuses))

	rec = s.do(t, http.MethodGet, "/reports?type=status&format=xlsx", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "status-")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	for _, q := range []string{"", "?type=payroll", "?type=status&format=pdf", "?type=status&period=decade"} {
		rec = s.do(t, http.MethodGet, "/reports"+q, nil, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")

	s.patients.Err = errors.New("connection refused")
	rec = s.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set(middleware.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.HeaderXRequestID))

	rec = s.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "1.0", rec.Header().Get("X-API-Version"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
