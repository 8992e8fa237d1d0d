package youtube

import (
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/alnah/go-mentions/internal/apierr"
)

// Reason is the structured cause of a failed API call.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRateLimitExceeded
	ReasonUserRateLimitExceeded
	ReasonQuotaExceeded
	ReasonDailyLimitExceeded
	ReasonForbidden
	ReasonUnknown
)

// String returns the provider spelling of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonRateLimitExceeded:
		return "rateLimitExceeded"
	case ReasonUserRateLimitExceeded:
		return "userRateLimitExceeded"
	case ReasonQuotaExceeded:
		return "quotaExceeded"
	case ReasonDailyLimitExceeded:
		return "dailyLimitExceeded"
	case ReasonForbidden:
		return "forbidden"
	case ReasonUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Retryable reports whether waiting may clear the condition.
// Only the quota family qualifies.
func (r Reason) Retryable() bool {
	switch r {
	case ReasonRateLimitExceeded, ReasonUserRateLimitExceeded,
		ReasonQuotaExceeded, ReasonDailyLimitExceeded:
		return true
	}
	return false
}

// sentinel maps a reason onto the shared apierr sentinels.
func (r Reason) sentinel() error {
	switch r {
	case ReasonRateLimitExceeded, ReasonUserRateLimitExceeded:
		return apierr.ErrRateLimit
	case ReasonQuotaExceeded, ReasonDailyLimitExceeded:
		return apierr.ErrQuotaExceeded
	case ReasonForbidden:
		return apierr.ErrForbidden
	}
	return nil
}

var reasonsByName = map[string]Reason{
	"rateLimitExceeded":     ReasonRateLimitExceeded,
	"userRateLimitExceeded": ReasonUserRateLimitExceeded,
	"quotaExceeded":         ReasonQuotaExceeded,
	"dailyLimitExceeded":    ReasonDailyLimitExceeded,
}

// errorEnvelope is the body Google APIs return on failed calls.
type errorEnvelope struct {
	Error *googleapi.Error `json:"error"`
}

// Classify extracts the reason and message from a provider error payload.
//
// Payloads that are not JSON, or carry no "error" object, are ReasonUnknown.
// The first entry of error.errors decides the quota family; failing that, a
// 403 code is ReasonForbidden.
func Classify(payload []byte) (Reason, string) {
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Error == nil {
		return ReasonUnknown, ""
	}

	e := env.Error
	if len(e.Errors) > 0 {
		if r, ok := reasonsByName[e.Errors[0].Reason]; ok {
			return r, e.Message
		}
	}
	if e.Code == http.StatusForbidden {
		return ReasonForbidden, e.Message
	}
	return ReasonUnknown, e.Message
}
