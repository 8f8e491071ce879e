package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/appmechanic/driveconnect/internal/logging"
	"github.com/appmechanic/driveconnect/internal/utils"
	"google.golang.org/api/googleapi"
)

func TestClassifyDriveErrorNil(t *testing.T) {
	if err := ClassifyDriveError("files.get", nil, logging.NewNoOpLogger()); err != nil {
		t.Errorf("ClassifyDriveError(nil) = %v, want nil", err)
	}
}

func TestClassifyDriveErrorStatusCodes(t *testing.T) {
	logger := logging.NewNoOpLogger()

	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
	}{
		{
			name:     "context canceled",
			err:      context.Canceled,
			wantCode: utils.ErrCodeCancelled,
		},
		{
			name:     "wrapped deadline",
			err:      fmt.Errorf("call: %w", context.DeadlineExceeded),
			wantCode: utils.ErrCodeCancelled,
		},
		{
			name:          "plain network error",
			err:           stderrors.New("dial tcp: connection refused"),
			wantCode:      utils.ErrCodeNetworkError,
			wantRetryable: true,
		},
		{
			name:     "400 bad request",
			err:      &googleapi.Error{Code: 400, Message: "empty parent list"},
			wantCode: utils.ErrCodeInvalidArgument,
		},
		{
			name:     "401 unauthorized",
			err:      &googleapi.Error{Code: 401, Message: "invalid credentials"},
			wantCode: utils.ErrCodeAuthExpired,
		},
		{
			name:     "403 forbidden",
			err:      &googleapi.Error{Code: 403, Message: "insufficient permissions"},
			wantCode: utils.ErrCodePermissionDenied,
		},
		{
			name: "403 rate limited",
			err: &googleapi.Error{Code: 403, Message: "rate limit", Errors: []googleapi.ErrorItem{
				{Reason: "userRateLimitExceeded"},
			}},
			wantCode:      utils.ErrCodeNetworkError,
			wantRetryable: true,
		},
		{
			name:     "404 not found",
			err:      &googleapi.Error{Code: 404, Message: "file not found"},
			wantCode: utils.ErrCodeNotFound,
		},
		{
			name:          "429 too many requests",
			err:           &googleapi.Error{Code: 429, Message: "slow down"},
			wantCode:      utils.ErrCodeNetworkError,
			wantRetryable: true,
		},
		{
			name:          "503 unavailable",
			err:           &googleapi.Error{Code: 503, Message: "backend error"},
			wantCode:      utils.ErrCodeNetworkError,
			wantRetryable: true,
		},
		{
			name:     "teapot",
			err:      &googleapi.Error{Code: 418, Message: "short and stout"},
			wantCode: utils.ErrCodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDriveError("files.get", tt.err, logger)
			if !utils.IsCode(got, tt.wantCode) {
				t.Errorf("code = %s, want %s", utils.CodeOf(got), tt.wantCode)
			}
			var appErr *utils.AppError
			if !stderrors.As(got, &appErr) {
				t.Fatal("classified error is not an AppError")
			}
			if appErr.OpError.Retryable != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", appErr.OpError.Retryable, tt.wantRetryable)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("classified error should wrap the cause")
			}
		})
	}
}
