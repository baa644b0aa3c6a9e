package errors

import (
	"errors"
	"net/http"

	"escaperooms-directory/pkg/cache"
	"escaperooms-directory/pkg/contentsource"

	"github.com/go-playground/validator/v10"
)

// MapError converts a technical error into a user-friendly AppError. Matching
// is by type through the wrap chain, never by message text.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	technicalMessage := err.Error()
	var (
		unavailable *contentsource.SourceUnavailableError
		sourceErr   *contentsource.SourceError
		cacheErr    *cache.CacheError
		validation  validator.ValidationErrors
	)

	switch {
	case errors.As(err, &unavailable):
		return NewAppError(technicalMessage, MsgServiceUnavailable, ErrCodeServiceUnavailable, http.StatusServiceUnavailable, err)
	case errors.As(err, &sourceErr):
		return NewAppError(technicalMessage, MsgSourceError, ErrCodeSourceError, http.StatusBadGateway, err)
	case errors.As(err, &cacheErr):
		return NewAppError(technicalMessage, MsgCacheUnavailable, ErrCodeCacheUnavailable, http.StatusServiceUnavailable, err)
	case errors.As(err, &validation):
		return NewAppError(technicalMessage, MsgInvalidParameters, ErrCodeInvalidParameters, http.StatusBadRequest, err)
	default:
		return NewAppError(technicalMessage, MsgInternalError, ErrCodeInternal, http.StatusInternalServerError, err)
	}
}

// IsRetryable reports whether the failure is transient: the source or the
// cache backend could not be reached.
func IsRetryable(err error) bool {
	return contentsource.IsUnavailable(err) || cache.IsConnectionError(err)
}
