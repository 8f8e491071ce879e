// Package errors maps Google API failures onto the stable error codes
// exposed by this core. Transient failures are classified as retryable
// but are never retried here; retry safety differs per operation, so
// the decision belongs to the caller.
package errors

import (
	"context"
	stderrors "errors"

	"github.com/appmechanic/driveconnect/internal/logging"
	"github.com/appmechanic/driveconnect/internal/utils"
	"google.golang.org/api/googleapi"
)

// ClassifyDriveError converts a Drive API error to a typed AppError.
// The op string names the failed operation so 403/404 surface with
// operation-specific messages.
func ClassifyDriveError(op string, err error, logger logging.Logger) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return utils.NewOpError(utils.ErrCodeCancelled, op+": "+err.Error()).
			WithCause(err).
			Err()
	}

	var apiErr *googleapi.Error
	if !stderrors.As(err, &apiErr) {
		logger.Error("Non-API error",
			logging.F("op", op),
			logging.F("error", err.Error()),
		)
		return utils.NewOpError(utils.ErrCodeNetworkError, op+": "+err.Error()).
			WithRetryable(true).
			WithCause(err).
			Err()
	}

	var code string
	var retryable bool

	switch apiErr.Code {
	case 400:
		code = utils.ErrCodeInvalidArgument
	case 401:
		code = utils.ErrCodeAuthExpired
	case 403:
		code = utils.ErrCodePermissionDenied
		for _, e := range apiErr.Errors {
			switch e.Reason {
			case "sharingRateLimitExceeded", "userRateLimitExceeded", "rateLimitExceeded", "dailyLimitExceeded":
				code = utils.ErrCodeNetworkError
				retryable = true
			}
		}
	case 404:
		code = utils.ErrCodeNotFound
	case 429:
		code = utils.ErrCodeNetworkError
		retryable = true
	case 500, 502, 503, 504:
		code = utils.ErrCodeNetworkError
		retryable = true
	default:
		code = utils.ErrCodeUnknown
		retryable = apiErr.Code >= 500
	}

	logger.Error("API error classified",
		logging.F("op", op),
		logging.F("httpStatus", apiErr.Code),
		logging.F("errorCode", code),
		logging.F("retryable", retryable),
		logging.F("message", apiErr.Message),
	)

	builder := utils.NewOpError(code, op+": "+apiErr.Message).
		WithHTTPStatus(apiErr.Code).
		WithRetryable(retryable).
		WithCause(err).
		WithContext("op", op)

	if len(apiErr.Errors) > 0 {
		builder.WithContext("reason", apiErr.Errors[0].Reason)
	}

	return builder.Err()
}
