package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/prep-deck-be/internal/api"
	"github.com/isdelr/prep-deck-be/internal/auth"
	"github.com/isdelr/prep-deck-be/internal/client"
	"github.com/isdelr/prep-deck-be/internal/database"
	"github.com/isdelr/prep-deck-be/internal/models"
	"github.com/isdelr/prep-deck-be/internal/monitoring"
	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/isdelr/prep-deck-be/internal/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	auth.Configure("test-secret", time.Hour)

	db, err := database.New(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	events := services.NewEventService(db)
	router := api.NewRouter(api.Deps{
		Hub:             hub,
		UserService:     services.NewUserService(db),
		SessionService:  services.NewSessionService(db, events, hub),
		QuestionService: services.NewQuestionService(db, events, hub),
		EventService:    events,
		Health:          monitoring.NewHealthChecker(db),
		AllowedOrigins:  []string{"http://localhost:5173"},
		TokenTTL:        time.Hour,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
		db.Close()
	})
	return srv
}

func signUp(t *testing.T, srv *httptest.Server, name, email string) *client.Client {
	t.Helper()

	c := client.New(srv.URL, srv.Client())
	if _, err := c.SignUp(context.Background(), client.SignUpForm{FullName: name, Email: email, Password: "pw123"}); err != nil {
		t.Fatalf("SignUp(%s): %v", email, err)
	}
	return c
}

func apiStatus(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSessionLifecycleAcrossOwners(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	u1 := signUp(t, srv, "User One", "u1@example.com")
	u2 := signUp(t, srv, "User Two", "u2@example.com")

	session, err := u1.CreateSession(ctx, client.SessionForm{
		Role:          "Backend",
		Experience:    "2",
		TopicsToFocus: "Go",
		Questions:     []client.QuestionPair{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if len(session.Questions) != 2 || session.Questions[0].Question != "q1" || session.Questions[1].Question != "q2" {
		t.Fatalf("unexpected questions: %+v", session.Questions)
	}

	if err := u2.DeleteSession(ctx, session.ID); apiStatus(err) != http.StatusUnauthorized {
		t.Fatalf("delete as non-owner: expected 401, got %v", err)
	}

	mine, err := u2.MySessions(ctx)
	if err != nil {
		t.Fatalf("MySessions: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("u2 sees %d sessions, want 0", len(mine))
	}

	if err := u1.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("delete as owner: %v", err)
	}

	if _, err := u1.Session(ctx, session.ID); apiStatus(err) != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %v", err)
	}
	if err := u1.DeleteSession(ctx, session.ID); apiStatus(err) != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %v", err)
	}
}

func TestCreateSessionResponseShape(t *testing.T) {
	srv := newTestServer(t)
	u1 := signUp(t, srv, "User One", "u1@example.com")

	body := `{"role":"Backend","experience":"2","topicsToFocus":"Go","description":"","questions":[{"question":"q1","answer":"a1"}]}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/sessions", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+u1.Token())
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST /api/sessions: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var res struct {
		Success bool           `json:"success"`
		Session models.Session `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success to be true")
	}
	if res.Session.ID == "" || len(res.Session.Questions) != 1 || res.Session.Questions[0].Question != "q1" {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
}

func TestAddQuestionsToSession(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	owner := signUp(t, srv, "Owner", "owner@example.com")
	other := signUp(t, srv, "Other", "other@example.com")

	session, err := owner.CreateSession(ctx, client.SessionForm{
		Role: "Backend", Experience: "2", TopicsToFocus: "Go",
		Questions: []client.QuestionPair{{Question: "q1", Answer: "a1"}},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	more := []client.QuestionPair{{Question: "q2", Answer: "a2"}, {Question: "q3", Answer: "a3"}}
	added, err := owner.AddQuestions(ctx, session.ID, more)
	if err != nil {
		t.Fatalf("AddQuestions: %v", err)
	}
	if len(added) != 2 || added[0].Question != "q2" || added[1].Question != "q3" {
		t.Fatalf("unexpected added questions: %+v", added)
	}

	if _, err := other.AddQuestions(ctx, session.ID, more); apiStatus(err) != http.StatusUnauthorized {
		t.Fatalf("add as non-owner: expected 401, got %v", err)
	}
	if _, err := owner.AddQuestions(ctx, "missing", more); apiStatus(err) != http.StatusNotFound {
		t.Fatalf("add to unknown session: expected 404, got %v", err)
	}

	got, err := owner.Session(ctx, session.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(got.Questions) != 3 || got.Questions[0].Question != "q1" || got.Questions[2].Question != "q3" {
		t.Fatalf("unexpected stored questions: %+v", got.Questions)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/questions/add",
		strings.NewReader(`{"sessionId":"`+session.ID+`","questions":[{"question":"q4","answer":"a4"}]}`))
	req.Header.Set("Authorization", "Bearer "+owner.Token())
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST /api/questions/add: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var res struct {
		Success   bool              `json:"success"`
		Questions []models.Question `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success || len(res.Questions) != 1 || res.Questions[0].Question != "q4" {
		t.Fatalf("unexpected response: %+v", res)
	}

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/api/questions/add", strings.NewReader(`{"sessionId":"","questions":[]}`))
	req.Header.Set("Authorization", "Bearer "+owner.Token())
	bad, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty input: expected 400, got %d", bad.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)
	anon := client.New(srv.URL, srv.Client())

	if _, err := anon.MySessions(context.Background()); apiStatus(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}

	resp, err := srv.Client().Post(srv.URL+"/api/sessions", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGetSessionIsPublicAndOrdersPinnedFirst(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	owner := signUp(t, srv, "Owner", "owner@example.com")

	session, err := owner.CreateSession(ctx, client.SessionForm{
		Role: "SRE", Experience: "5", TopicsToFocus: "k8s",
		Questions: []client.QuestionPair{{Question: "q1"}, {Question: "q2"}, {Question: "q3"}},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := owner.TogglePin(ctx, session.Questions[2].ID); err != nil {
		t.Fatalf("TogglePin: %v", err)
	}

	anon := client.New(srv.URL, srv.Client())
	got, err := anon.Session(ctx, session.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	order := []string{got.Questions[0].Question, got.Questions[1].Question, got.Questions[2].Question}
	if order[0] != "q3" || order[1] != "q1" || order[2] != "q2" {
		t.Fatalf("order = %v, want [q3 q1 q2]", order)
	}
	if !got.Questions[0].IsPinned {
		t.Fatal("first question should be pinned")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	signUp(t, srv, "Ada", "ada@example.com")

	dup := client.New(srv.URL, srv.Client())
	_, err := dup.SignUp(ctx, client.SignUpForm{FullName: "Ada", Email: "ada@example.com", Password: "x"})
	if apiStatus(err) != http.StatusBadRequest {
		t.Fatalf("duplicate sign-up: expected 400, got %v", err)
	}

	c := client.New(srv.URL, srv.Client())
	if _, err := c.Login(ctx, "ada@example.com", "wrong"); apiStatus(err) != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %v", err)
	}
	res, err := c.Login(ctx, "ada@example.com", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || c.Token() != res.Token {
		t.Fatal("login should store the token")
	}

	profile, err := c.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Email != "ada@example.com" || profile.Name != "Ada" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
