package upload

import (
	"context"
	"errors"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"shorts-pipeline/internal/types"
)

var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
	"uploadLimitExceeded":   true,
}

var authReasons = map[string]bool{
	"authError":               true,
	"forbidden":               true,
	"insufficientPermissions": true,
	"youtubeSignupRequired":   true,
}

// Classify maps an upload error onto a *types.PublishError.
// Errors that already carry a kind pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pe *types.PublishError
	if errors.As(err, &pe) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &types.PublishError{Kind: kindForAPI(gerr), Code: gerr.Code, Message: apiMessage(gerr), Err: err}
	}

	// token refresh failures arrive wrapped in a *url.Error, which is also a net.Error
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		code := 0
		if rerr.Response != nil {
			code = rerr.Response.StatusCode
		}
		return &types.PublishError{Kind: types.KindAuth, Code: code, Message: err.Error(), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &types.PublishError{Kind: types.KindTransient, Message: err.Error(), Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return &types.PublishError{Kind: types.KindTransient, Message: err.Error(), Err: err}
	}

	return &types.PublishError{Kind: types.KindUnknown, Message: err.Error(), Err: err}
}

func kindForAPI(gerr *googleapi.Error) types.Kind {
	for _, item := range gerr.Errors {
		if quotaReasons[item.Reason] {
			return types.KindQuota
		}
		if authReasons[item.Reason] {
			return types.KindAuth
		}
	}
	switch {
	case gerr.Code == http.StatusTooManyRequests:
		return types.KindQuota
	case gerr.Code == http.StatusUnauthorized, gerr.Code == http.StatusForbidden:
		return types.KindAuth
	case gerr.Code == http.StatusRequestTimeout, gerr.Code >= 500:
		return types.KindTransient
	case gerr.Code >= 400:
		return types.KindMalformed
	}
	return types.KindUnknown
}

func apiMessage(gerr *googleapi.Error) string {
	if gerr.Message != "" {
		return gerr.Message
	}
	if len(gerr.Errors) > 0 {
		return gerr.Errors[0].Message
	}
	return http.StatusText(gerr.Code)
}
