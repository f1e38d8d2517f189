package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/app"
	"github.com/mtlprog/taskflow/internal/handler"
	"github.com/mtlprog/taskflow/internal/handler/dto"
	"github.com/mtlprog/taskflow/internal/testutil"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type HandlerTestSuite struct {
	suite.Suite
	store  *testutil.Store
	pinger *stubPinger
	mux    *http.ServeMux

	aliceToken string
	bobToken   string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.store = testutil.NewStore()
	s.pinger = &stubPinger{}

	tokens, err := accounts.NewJWTIssuer("0123456789abcdef0123456789abcdef", app.TokenIssuerName, time.Hour)
	s.Require().NoError(err)

	a, err := app.New(app.Stores{
		Tx:            s.store,
		Tasks:         s.store.Tasks(),
		Activity:      s.store.Activity(),
		Notifications: s.store.Notifications(),
		Users:         s.store.Users(),
	}, accounts.NewBcryptHasher(bcrypt.MinCost), tokens, testutil.DiscardLogger())
	s.Require().NoError(err)

	s.mux = http.NewServeMux()
	handler.New(s.pinger, a).RegisterRoutes(s.mux)

	s.aliceToken = s.registerAndLogin("alice@example.com", "Alice")
	s.bobToken = s.registerAndLogin("bob@example.com", "Bob")
}

// Helper to make a request against the full route table.
func (s *HandlerTestSuite) makeRequest(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, dst interface{}) {
	s.Require().NoError(json.NewDecoder(w.Body).Decode(dst))
}

func (s *HandlerTestSuite) registerAndLogin(email, firstName string) string {
	w := s.makeRequest("POST", "/api/v1/users/register", "", dto.RegisterRequest{
		Email: email, Password: "Secr3tPass", FirstName: firstName, LastName: "Tester",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.makeRequest("POST", "/api/v1/users/login", "", dto.LoginRequest{Email: email, Password: "Secr3tPass"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.LoginResponse
	s.decode(w, &resp)
	s.Require().NotEmpty(resp.Token)
	return resp.Token
}

func (s *HandlerTestSuite) createTask(token, title string) dto.TaskResponse {
	w := s.makeRequest("POST", "/api/v1/tasks", token, dto.CreateTaskRequest{Title: title, Priority: "high"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskResponse
	s.decode(w, &task)
	return task
}

func (s *HandlerTestSuite) TestHealthz() {
	w := s.makeRequest("GET", "/healthz", "", nil)
	s.Equal(http.StatusOK, w.Code)

	s.pinger.err = errors.New("connection refused")
	w = s.makeRequest("GET", "/healthz", "", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlerTestSuite) TestCreateTask_Unauthorized() {
	w := s.makeRequest("POST", "/api/v1/tasks", "", dto.CreateTaskRequest{Title: "Test Task"})
	s.Equal(http.StatusUnauthorized, w.Code)

	var errResp dto.ErrorResponse
	s.decode(w, &errResp)
	s.Equal("User.InvalidToken", errResp.Error.Code)

	w = s.makeRequest("POST", "/api/v1/tasks", "not-a-jwt", dto.CreateTaskRequest{Title: "Test Task"})
	s.Equal(http.StatusUnauthorized, w.Code)

	s.decode(w, &errResp)
	s.Equal("User.InvalidToken", errResp.Error.Code)
}

func (s *HandlerTestSuite) TestCreateTask() {
	task := s.createTask(s.aliceToken, "Write report")

	s.Equal("Write report", task.Title)
	s.Equal("High", task.Priority)
	s.Equal("Todo", task.Status)
	s.Nil(task.CompletedAt)
}

func (s *HandlerTestSuite) TestCreateTask_ValidationError() {
	w := s.makeRequest("POST", "/api/v1/tasks", s.aliceToken, dto.CreateTaskRequest{})
	s.Equal(http.StatusBadRequest, w.Code)

	var errResp dto.ErrorResponse
	s.decode(w, &errResp)
	s.Equal("VALIDATION_ERROR", errResp.Error.Code)

	past := time.Now().AddDate(0, 0, -3)
	w = s.makeRequest("POST", "/api/v1/tasks", s.aliceToken, dto.CreateTaskRequest{Title: "Late", DueDate: &past})
	s.Equal(http.StatusBadRequest, w.Code)
	s.decode(w, &errResp)
	s.Equal("Task.DueDateInPast", errResp.Error.Code)
}

func (s *HandlerTestSuite) TestCreateTask_InvalidJSON() {
	req := httptest.NewRequest("POST", "/api/v1/tasks", bytes.NewReader([]byte("{")))
	req.Header.Set("Authorization", "Bearer "+s.aliceToken)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	var errResp dto.ErrorResponse
	s.decode(w, &errResp)
	s.Equal("INVALID_JSON", errResp.Error.Code)
}

func (s *HandlerTestSuite) TestGetTask_OtherOwnerForbidden() {
	task := s.createTask(s.aliceToken, "Private plan")

	w := s.makeRequest("GET", "/api/v1/tasks/"+task.ID, s.bobToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest("GET", "/api/v1/tasks/"+task.ID, s.aliceToken, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestGetTask_BadID() {
	w := s.makeRequest("GET", "/api/v1/tasks/not-a-uuid", s.aliceToken, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.makeRequest("GET", "/api/v1/tasks/00000000-0000-0000-0000-000000000001", s.aliceToken, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestListTasks_OnlyOwn() {
	s.createTask(s.aliceToken, "First")
	s.createTask(s.aliceToken, "Second")
	s.createTask(s.bobToken, "Bob's")

	w := s.makeRequest("GET", "/api/v1/tasks", s.aliceToken, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp dto.TasksListResponse
	s.decode(w, &resp)
	s.Equal(2, resp.Total)
	for _, t := range resp.Tasks {
		s.NotEqual("Bob's", t.Title)
	}
}

func (s *HandlerTestSuite) TestChangeStatus_Lifecycle() {
	task := s.createTask(s.aliceToken, "Ship release")
	path := "/api/v1/tasks/" + task.ID + "/status"

	w := s.makeRequest("PATCH", path, s.aliceToken, dto.ChangeStatusRequest{Status: "inprogress"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.makeRequest("PATCH", path, s.aliceToken, dto.ChangeStatusRequest{Status: "Done"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var done dto.TaskResponse
	s.decode(w, &done)
	s.Equal("Done", done.Status)
	s.NotNil(done.CompletedAt)

	w = s.makeRequest("PATCH", path, s.aliceToken, dto.ChangeStatusRequest{Status: "Cancelled"})
	s.Equal(http.StatusBadRequest, w.Code)
	var errResp dto.ErrorResponse
	s.decode(w, &errResp)
	s.Equal("Task.CannotCancel", errResp.Error.Code)

	w = s.makeRequest("PATCH", path, s.aliceToken, dto.ChangeStatusRequest{Status: "Todo"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.decode(w, &errResp)
	s.Equal("Task.InvalidStatus", errResp.Error.Code)
}

func (s *HandlerTestSuite) TestTaskActivity_RecordsEveryEvent() {
	task := s.createTask(s.aliceToken, "Audit me")

	w := s.makeRequest("PATCH", "/api/v1/tasks/"+task.ID+"/status", s.aliceToken, dto.ChangeStatusRequest{Status: "Done"})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.makeRequest("GET", "/api/v1/tasks/"+task.ID+"/activity", s.aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var entries []dto.ActivityResponse
	s.decode(w, &entries)
	s.Require().Len(entries, 3)
	s.Equal("task.created", entries[0].Kind)
	s.Equal("task.completed", entries[1].Kind)
	s.Equal("task.status_changed", entries[2].Kind)
}

func (s *HandlerTestSuite) TestUpdateAndDeleteTask() {
	task := s.createTask(s.aliceToken, "Draft")
	path := "/api/v1/tasks/" + task.ID

	w := s.makeRequest("PUT", path, s.aliceToken, dto.UpdateTaskRequest{
		Title: "Final", Description: "polished", Priority: "low",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.TaskResponse
	s.decode(w, &updated)
	s.Equal("Final", updated.Title)
	s.Equal("Low", updated.Priority)

	w = s.makeRequest("DELETE", path, s.bobToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest("DELETE", path, s.aliceToken, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.makeRequest("GET", path, s.aliceToken, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestNotifications_FromReactions() {
	// Registration already produced a welcome notification.
	w := s.makeRequest("GET", "/api/v1/notifications/unread", s.aliceToken, nil)
	var unread dto.UnreadCountResponse
	s.decode(w, &unread)
	s.Equal(1, unread.Count)

	s.createTask(s.aliceToken, "Notify me")

	w = s.makeRequest("GET", "/api/v1/notifications", s.aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []dto.NotificationResponse
	s.decode(w, &list)
	s.Require().Len(list, 2)

	types := []string{list[0].Type, list[1].Type}
	s.ElementsMatch([]string{"Welcome", "TaskCreated"}, types)

	w = s.makeRequest("PATCH", "/api/v1/notifications/"+list[0].ID+"/read", s.bobToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest("PATCH", "/api/v1/notifications/"+list[0].ID+"/read", s.aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var read dto.NotificationResponse
	s.decode(w, &read)
	s.True(read.IsRead)

	w = s.makeRequest("PATCH", "/api/v1/notifications/read-all", s.aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var all dto.MarkAllReadResponse
	s.decode(w, &all)
	s.Equal(1, all.Updated)

	w = s.makeRequest("GET", "/api/v1/notifications/unread", s.aliceToken, nil)
	s.decode(w, &unread)
	s.Equal(0, unread.Count)
}

func (s *HandlerTestSuite) TestRegister_Errors() {
	w := s.makeRequest("POST", "/api/v1/users/register", "", dto.RegisterRequest{
		Email: "alice@example.com", Password: "Secr3tPass", FirstName: "Alice", LastName: "Again",
	})
	s.Equal(http.StatusConflict, w.Code)

	w = s.makeRequest("POST", "/api/v1/users/register", "", dto.RegisterRequest{
		Email: "carol@example.com", Password: "weakpass", FirstName: "Carol", LastName: "Tester",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	var errResp dto.ErrorResponse
	s.decode(w, &errResp)
	s.Equal("Password.NoUppercase", errResp.Error.Code)
}

func (s *HandlerTestSuite) TestLogin_WrongPassword() {
	w := s.makeRequest("POST", "/api/v1/users/login", "", dto.LoginRequest{Email: "alice@example.com", Password: "Wr0ngPass"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestUsers() {
	w := s.makeRequest("GET", "/api/v1/users", s.aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var users []dto.UserResponse
	s.decode(w, &users)
	s.Require().Len(users, 2)

	w = s.makeRequest("GET", "/api/v1/users/"+users[0].ID, s.aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var user dto.UserResponse
	s.decode(w, &user)
	s.Equal(users[0].Email, user.Email)
}
