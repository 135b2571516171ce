package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/controllers"
	"github.com/yigit/careportal/internal/app/feed"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/repositories/memory"
	"github.com/yigit/careportal/internal/app/services"
	"github.com/yigit/careportal/internal/middleware"
	"github.com/yigit/careportal/internal/pkg/auth"
	"github.com/yigit/careportal/internal/pkg/email"
	"github.com/yigit/careportal/internal/pkg/validation"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

const (
	adminEmail    = "care.admin@example.edu"
	adminPassword = "Sup3rSecret!"
)

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Warnings []string        `json:"warnings"`
	Error    *struct {
		Code    string `json:"code"`
		Details any    `json:"details"`
	} `json:"error"`
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	view   *feed.View
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterWithGin(); err != nil {
		t.Fatalf("register validators: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := zerolog.Nop()
	store := memory.New()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "test",
	})
	hub := websocket.NewHub(64, logger)
	view := feed.NewView()
	go hub.Run(ctx)
	go feed.Listen(ctx, hub, view, 64, logger)
	publisher := feed.NewHubPublisher(hub, logger)
	dispatcher := email.NewDispatcher(email.SMTPConfig{}, logger)

	authService := services.NewAuthService(store, store, store, jwtService, logger)
	if _, err := authService.EnsureStaff(ctx, adminEmail, adminPassword, "Care Admin"); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	guard := services.NewKeyGuard(store, store, store, logger)
	applicationService := services.NewApplicationService(store, publisher, dispatcher, time.Second, logger)
	activationService := services.NewActivationService(store, store, guard, publisher, dispatcher, time.Second, logger)
	referralService := services.NewReferralService(store, store, publisher, dispatcher, time.Second, logger)
	studentService := services.NewStudentService(store, publisher, logger)

	router := gin.New()
	SetupRouter(router, Controllers{
		Auth:        controllers.NewAuthController(authService, logger),
		Application: controllers.NewApplicationController(applicationService, activationService, logger),
		Referral:    controllers.NewReferralController(referralService, logger),
		Student:     controllers.NewStudentController(studentService, logger),
		Feed:        controllers.NewFeedController(view),
		FeedSocket:  websocket.NewHandler(hub, middleware.ActorFromContext, 16, logger),
	}, middleware.NewAuthMiddleware(jwtService))

	return &testServer{router: router, store: store, view: view}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func (s *testServer) login(t *testing.T, portal, identifier, password string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"portal":     portal,
		"identifier": identifier,
		"password":   password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s %s: status %d", portal, identifier, code)
	}
	var data struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return data.Token.AccessToken
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestAdmissionToCounselingFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	code, env := s.do(t, http.MethodPost, "/api/v1/applications", "", map[string]any{
		"firstName":   "Ana",
		"lastName":    "Cruz",
		"email":       "ana.cruz@example.edu",
		"birthdate":   "2007-05-14",
		"firstChoice": "BS Information Technology",
	})
	if code != http.StatusCreated {
		t.Fatalf("submit application: status %d", code)
	}
	var created struct {
		Application struct {
			ID string `json:"id"`
		} `json:"application"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	appID := created.Application.ID

	applicant := s.login(t, "applicant", created.Username, created.Password)
	staff := s.login(t, "staff", adminEmail, adminPassword)

	if code, _ := s.do(t, http.MethodPost, "/api/v1/applications/me/time-in", applicant, nil); code != http.StatusOK {
		t.Fatalf("time-in: status %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/applications/me/time-out", applicant, nil); code != http.StatusOK {
		t.Fatalf("time-out: status %d", code)
	}
	if code, _ := s.do(t, http.MethodPatch, "/api/v1/applications/"+appID+"/status", applicant,
		map[string]string{"status": "PASSED"}); code != http.StatusForbidden {
		t.Fatalf("applicant setting PASSED: status %d, want 403", code)
	}
	if code, _ := s.do(t, http.MethodPatch, "/api/v1/applications/"+appID+"/status", staff,
		map[string]string{"status": "Passed"}); code != http.StatusOK {
		t.Fatalf("staff setting PASSED: status %d", code)
	}

	if err := s.store.CreateEnrollmentKey(ctx, &models.EnrollmentKey{
		StudentID: "2026-0001",
		Course:    "BS Information Technology",
	}); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/applications/"+appID+"/activate", applicant,
		map[string]string{"studentId": "2026-0001"})
	if code != http.StatusOK {
		t.Fatalf("activate: status %d error %+v", code, env.Error)
	}
	var activation struct {
		Outcome string `json:"outcome"`
		Student struct {
			Department string `json:"department"`
		} `json:"student"`
	}
	if err := json.Unmarshal(env.Data, &activation); err != nil {
		t.Fatalf("decode activation: %v", err)
	}
	if activation.Outcome != "Granted" {
		t.Errorf("outcome = %q, want Granted", activation.Outcome)
	}
	if activation.Student.Department != "College of Information Technology" {
		t.Errorf("department = %q", activation.Student.Department)
	}

	student := s.login(t, "student", "2026-0001", created.Password)
	code, env = s.do(t, http.MethodPost, "/api/v1/requests", student, map[string]string{
		"kind":   "counseling",
		"reason": "Adjusting to college workload",
	})
	if code != http.StatusCreated {
		t.Fatalf("submit request: status %d", code)
	}
	var request struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &request); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if request.Status != string(models.RequestSubmitted) {
		t.Errorf("status = %q, want SUBMITTED", request.Status)
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/requests/"+request.ID+"/complete", staff, nil)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("complete before scheduling: status %d, want 422", code)
	}
	if env.Error == nil || env.Error.Code != "FLOW_001" {
		t.Errorf("error = %+v, want FLOW_001", env.Error)
	}

	code, _ = s.do(t, http.MethodGet, "/api/v1/requests/mine", student, nil)
	if code != http.StatusOK {
		t.Fatalf("list mine: status %d", code)
	}
}

func TestActivationErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/applications", "", map[string]any{
		"firstName":   "Ben",
		"lastName":    "Reyes",
		"email":       "ben.reyes@example.edu",
		"firstChoice": "BS Criminology",
	})
	if code != http.StatusCreated {
		t.Fatalf("submit application: status %d", code)
	}
	var created struct {
		Application struct {
			ID string `json:"id"`
		} `json:"application"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	applicant := s.login(t, "applicant", created.Username, created.Password)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantErr  string
	}{
		{"malformed student id", map[string]string{"studentId": "abc"}, http.StatusBadRequest, "VAL_001"},
		{"not yet passed", map[string]string{"studentId": "2026-0042"}, http.StatusUnprocessableEntity, "ACT_004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/api/v1/applications/"+created.Application.ID+"/activate", applicant, tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d", code, tt.wantCode)
			}
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantErr)
			}
		})
	}
}

func TestRouteGuards(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "staff", adminEmail, adminPassword)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"listing without token", http.MethodGet, "/api/v1/applications", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/applications", "not-a-jwt", http.StatusUnauthorized},
		{"staff listing", http.MethodGet, "/api/v1/applications?status=applied", staff, http.StatusOK},
		{"bad status filter", http.MethodGet, "/api/v1/applications?status=bogus", staff, http.StatusBadRequest},
		{"staff cannot submit requests", http.MethodPost, "/api/v1/requests", staff, http.StatusForbidden},
		{"unknown request", http.MethodGet, "/api/v1/requests/missing", staff, http.StatusNotFound},
		{"public departments", http.MethodGet, "/api/v1/departments", "", http.StatusOK},
		{"staff feed snapshot", http.MethodGet, "/api/v1/feed/students", staff, http.StatusOK},
		{"unknown feed", http.MethodGet, "/api/v1/feed/staff_accounts", staff, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := s.do(t, tt.method, tt.path, tt.token, nil)
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestCreateStaffAccount(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "staff", adminEmail, adminPassword)

	body := map[string]string{
		"email":      "dean@example.edu",
		"password":   "Referr3r!pass",
		"fullName":   "Dean Cruz",
		"role":       "DEPARTMENT_REFERRER",
		"department": "College of Nursing",
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/staff", staff, body); code != http.StatusCreated {
		t.Fatalf("create staff: status %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/staff", staff, body); code != http.StatusConflict {
		t.Fatalf("duplicate staff: status %d, want 409", code)
	}

	referrer := s.login(t, "staff", "dean@example.edu", "Referr3r!pass")
	if code, _ := s.do(t, http.MethodPost, "/api/v1/staff", referrer, body); code != http.StatusForbidden {
		t.Fatalf("referrer creating staff: status %d, want 403", code)
	}
}
