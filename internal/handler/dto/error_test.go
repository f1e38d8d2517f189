package dto_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/handler/dto"
	"github.com/mtlprog/taskflow/internal/notifications"
	"github.com/mtlprog/taskflow/internal/tasks"
)

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{tasks.ErrCannotStart, http.StatusBadRequest, "Task.CannotStart"},
		{tasks.ErrAlreadyCancelled, http.StatusBadRequest, "Task.AlreadyCancelled"},
		{tasks.ErrNotFound, http.StatusNotFound, "Task.NotFound"},
		{tasks.ErrAccessDenied, http.StatusForbidden, "Task.AccessDenied"},
		{accounts.ErrEmailExists, http.StatusConflict, "User.EmailExists"},
		{accounts.ErrInvalidCredentials, http.StatusUnauthorized, "User.InvalidCredentials"},
		{notifications.ErrForbidden, http.StatusForbidden, "Notification.Forbidden"},
		{fmt.Errorf("load task: %w", tasks.ErrNotFound), http.StatusNotFound, "Task.NotFound"},
		{errors.New("connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		status, code, _ := dto.MapDomainError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
