package firebase

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tgienger/lumina/internal/remote"
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// identityCodes maps Identity Toolkit and Secure Token error messages
var identityCodes = map[string]struct{ code, message string }{
	"EMAIL_EXISTS":              {remote.CodeEmailInUse, "The email address is already in use by another account."},
	"WEAK_PASSWORD":             {remote.CodeWeakPassword, "Password should be at least 6 characters"},
	"INVALID_LOGIN_CREDENTIALS": {remote.CodeInvalidCredential, "Invalid login credentials."},
	"INVALID_PASSWORD":          {remote.CodeWrongPassword, "The password is invalid."},
	"EMAIL_NOT_FOUND":           {remote.CodeUserNotFound, "There is no user record corresponding to this identifier."},
	"INVALID_EMAIL":             {remote.CodeInvalidEmail, "The email address is badly formatted."},
	"MISSING_PASSWORD":          {remote.CodeWeakPassword, "Password should be at least 6 characters"},
	"OPERATION_NOT_ALLOWED":     {remote.CodeOperationDenied, "This sign-in method is disabled for the project."},
	"TOKEN_EXPIRED":             {remote.CodeTokenExpired, "The user's credential is no longer valid."},
	"INVALID_REFRESH_TOKEN":     {remote.CodeTokenExpired, "The user's credential is no longer valid."},
	"INVALID_ID_TOKEN":          {remote.CodeTokenExpired, "The user's credential is no longer valid."},
	"USER_NOT_FOUND":            {remote.CodeTokenExpired, "The user's credential is no longer valid."},
	"USER_DISABLED":             {remote.CodeTokenExpired, "The user account has been disabled."},
}

// decodeError normalizes a REST error body into *remote.Error. Identity
// messages look like "WEAK_PASSWORD : detail"; Firestore carries a gRPC
// status such as PERMISSION_DENIED.
func decodeError(status int, body []byte) error {
	e, ok := parseAPIError(body)
	if !ok {
		return remote.Errorf(statusCode(status), "%s", strings.TrimSpace(string(body)))
	}

	key, detail, _ := strings.Cut(e.Message, " : ")
	key = strings.TrimSpace(key)
	if m, ok := identityCodes[key]; ok {
		msg := m.message
		if detail != "" {
			msg = strings.TrimSpace(detail)
		}
		return &remote.Error{Code: m.code, Message: msg}
	}

	if e.Status != "" {
		return &remote.Error{
			Code:    strings.ToLower(strings.ReplaceAll(e.Status, "_", "-")),
			Message: e.Message,
		}
	}
	return &remote.Error{Code: statusCode(status), Message: e.Message}
}

// parseAPIError accepts both {"error":{...}} and the runQuery form
// [{"error":{...}}].
func parseAPIError(body []byte) (apiError, bool) {
	var single struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(body, &single) == nil && single.Error != nil {
		return *single.Error, true
	}

	var list []struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(body, &list) == nil {
		for _, item := range list {
			if item.Error != nil {
				return *item.Error, true
			}
		}
	}
	return apiError{}, false
}

func statusCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return remote.CodeUnauthenticated
	case http.StatusForbidden:
		return remote.CodePermissionDenied
	case http.StatusNotFound:
		return remote.CodeNotFound
	case http.StatusServiceUnavailable:
		return remote.CodeUnavailable
	default:
		return remote.CodeUnknown
	}
}
