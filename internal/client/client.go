// Package client is a typed HTTP client for the prep API. It performs the
// same calls and client-side checks as the web app's sign-up, login and
// session forms.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/prep-deck-be/internal/models"
)

// ErrInvalidForm is wrapped by every client-side form validation failure.
var ErrInvalidForm = errors.New("invalid form")

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to the API and remembers the token from the last sign-up or login.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for baseURL (e.g. "http://localhost:8080").
// A nil httpClient gets a default one with a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token used on protected calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SignUpForm holds the sign-up page fields.
type SignUpForm struct {
	FullName        string
	Email           string
	Password        string
	ProfileImageURL string
}

// Validate applies the sign-up page's checks in the order the page shows them.
func (f SignUpForm) Validate() error {
	switch {
	case strings.TrimSpace(f.FullName) == "":
		return fmt.Errorf("%w: Please enter full name.", ErrInvalidForm)
	case !models.ValidEmail(f.Email):
		return fmt.Errorf("%w: Please enter a valid Email Address.", ErrInvalidForm)
	case f.Password == "":
		return fmt.Errorf("%w: Please enter your password.", ErrInvalidForm)
	}
	return nil
}

// AuthResult is the register/login response.
type AuthResult struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl"`
	Token           string `json:"token"`
}

// SignUp validates the form, registers the user and keeps the returned token.
func (c *Client) SignUp(ctx context.Context, form SignUpForm) (AuthResult, error) {
	if err := form.Validate(); err != nil {
		return AuthResult{}, err
	}

	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":            form.FullName,
		"email":           form.Email,
		"password":        form.Password,
		"profileImageUrl": form.ProfileImageURL,
	}, &res)
	if err != nil {
		return AuthResult{}, err
	}
	c.SetToken(res.Token)
	return res, nil
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if !models.ValidEmail(email) {
		return AuthResult{}, fmt.Errorf("%w: Please enter a valid Email Address.", ErrInvalidForm)
	}
	if password == "" {
		return AuthResult{}, fmt.Errorf("%w: Please enter the password.", ErrInvalidForm)
	}

	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &res); err != nil {
		return AuthResult{}, err
	}
	c.SetToken(res.Token)
	return res, nil
}

// Profile fetches the signed-in user.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, &user)
	return user, err
}

// QuestionPair is one question/answer entry attached to a new session.
type QuestionPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SessionForm holds the create-session form fields.
type SessionForm struct {
	Role          string         `json:"role"`
	Experience    string         `json:"experience"`
	TopicsToFocus string         `json:"topicsToFocus"`
	Description   string         `json:"description"`
	Questions     []QuestionPair `json:"questions"`
}

// Validate requires role, experience and topics, as the form does.
func (f SessionForm) Validate() error {
	if strings.TrimSpace(f.Role) == "" || strings.TrimSpace(f.Experience) == "" || strings.TrimSpace(f.TopicsToFocus) == "" {
		return fmt.Errorf("%w: Please fill all the required fields.", ErrInvalidForm)
	}
	return nil
}

// CreateSession submits the form and returns the stored session.
func (c *Client) CreateSession(ctx context.Context, form SessionForm) (models.Session, error) {
	if err := form.Validate(); err != nil {
		return models.Session{}, err
	}
	if form.Questions == nil {
		form.Questions = []QuestionPair{}
	}

	var res struct {
		Session models.Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", form, &res); err != nil {
		return models.Session{}, err
	}
	return res.Session, nil
}

// MySessions lists the signed-in user's sessions, newest first.
func (c *Client) MySessions(ctx context.Context) ([]models.Session, error) {
	var res struct {
		Data []models.Session `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions/my", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Session fetches one session with pinned questions first.
func (c *Client) Session(ctx context.Context, id string) (models.Session, error) {
	var res struct {
		Session models.Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &res); err != nil {
		return models.Session{}, err
	}
	return res.Session, nil
}

// DeleteSession deletes a session owned by the signed-in user.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// AddQuestions appends question/answer pairs to a session owned by the
// signed-in user and returns the stored questions.
func (c *Client) AddQuestions(ctx context.Context, sessionID string, pairs []QuestionPair) ([]models.Question, error) {
	if sessionID == "" || len(pairs) == 0 {
		return nil, fmt.Errorf("%w: session and at least one question are required", ErrInvalidForm)
	}

	var res struct {
		Questions []models.Question `json:"questions"`
	}
	body := struct {
		SessionID string         `json:"sessionId"`
		Questions []QuestionPair `json:"questions"`
	}{sessionID, pairs}
	if err := c.do(ctx, http.MethodPost, "/api/questions/add", body, &res); err != nil {
		return nil, err
	}
	return res.Questions, nil
}

// TogglePin flips the pinned flag of a question.
func (c *Client) TogglePin(ctx context.Context, questionID string) (models.Question, error) {
	var res struct {
		Question models.Question `json:"question"`
	}
	err := c.do(ctx, http.MethodPost, "/api/questions/"+url.PathEscape(questionID)+"/pin", nil, &res)
	return res.Question, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
