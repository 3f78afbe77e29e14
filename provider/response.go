package provider

import (
	"encoding/json"
	"net/http"
	"strings"
)

// attemptErrorKind classifies why a single hypothesis attempt failed. The
// provider signals errors textually inside otherwise-200 bodies, so
// classification is a string-contains match over the usual complaint fields.
type attemptErrorKind string

const (
	attemptOK               attemptErrorKind = ""
	attemptTransport        attemptErrorKind = "transport"
	attemptNotFound         attemptErrorKind = "not_found"
	attemptInstanceNotFound attemptErrorKind = "instance_not_found"
	attemptAuthRejected     attemptErrorKind = "auth_rejected"
	attemptProviderError    attemptErrorKind = "provider_error"
)

// Attempt records one failed hypothesis for diagnostics.
type Attempt struct {
	Hypothesis string           `json:"hypothesis"`
	Endpoint   string           `json:"endpoint"`
	ErrorKind  attemptErrorKind `json:"error_kind"`
	Detail     string           `json:"detail,omitempty"`
}

// FailureKind is the aggregate classification after every hypothesis failed.
type FailureKind string

const (
	FailureInvalidCredentials   FailureKind = "invalid_credentials"
	FailureAPIIncompatible      FailureKind = "api_incompatible"
	FailureAuthenticationFailed FailureKind = "authentication_failed"
	FailureTransient            FailureKind = "multiple_transient_errors"
)

// Failure carries the aggregate kind plus every individual attempt so
// support can see exactly which shapes were tried.
type Failure struct {
	Kind     FailureKind `json:"kind"`
	Attempts []Attempt   `json:"attempts"`
}

// Response is the result of one resolve call. Exactly one of Body or
// Failure is meaningful depending on Succeeded.
type Response struct {
	Succeeded  bool
	Body       map[string]any
	Hypothesis *EndpointHypothesis
	Failure    *Failure
}

// complaintFields are the body keys the provider has historically used to
// carry its error text.
var complaintFields = []string{"error", "message", "reason", "value"}

var instanceNotFoundMarkers = []string{
	"instance not found",
	"instance does not exist",
	"invalid instance",
	"unknown instance",
}

var authRejectedMarkers = []string{
	"invalid token",
	"token rejected",
	"token not found",
	"invalid client-token",
	"unauthorized token",
}

// classifyBody inspects a decoded provider body plus the HTTP status and
// decides whether this attempt counts as a success or which failure shape
// it matches. A 2xx with no recognizable error marker wins.
func classifyBody(statusCode int, body map[string]any) (attemptErrorKind, string) {
	complaint := extractComplaint(body)
	lower := strings.ToLower(complaint)

	for _, marker := range instanceNotFoundMarkers {
		if strings.Contains(lower, marker) {
			return attemptInstanceNotFound, complaint
		}
	}
	for _, marker := range authRejectedMarkers {
		if strings.Contains(lower, marker) {
			return attemptAuthRejected, complaint
		}
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return attemptAuthRejected, complaint
	}
	if strings.Contains(lower, "not_found") || strings.Contains(lower, "not found") || statusCode == http.StatusNotFound {
		return attemptNotFound, complaint
	}
	if statusCode >= 400 {
		return attemptProviderError, complaint
	}
	if complaint != "" && looksLikeError(body) {
		return attemptProviderError, complaint
	}
	return attemptOK, ""
}

func extractComplaint(body map[string]any) string {
	for _, field := range complaintFields {
		if v, ok := body[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// looksLikeError guards against treating informational bodies that happen to
// carry a "message" field as failures: only bodies with an explicit error
// field, or an explicit success=false, count.
func looksLikeError(body map[string]any) bool {
	if _, ok := body["error"]; ok {
		return true
	}
	if v, ok := body["success"].(bool); ok && !v {
		return true
	}
	return false
}

// decodeBody tolerates the provider occasionally answering with non-JSON
// text; the raw text is preserved under "raw" so nothing downstream touches
// an undecoded blob.
func decodeBody(raw []byte) map[string]any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return map[string]any{}
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		return body
	}
	// Some endpoints answer with a bare JSON array (chat listings).
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		return map[string]any{"items": list}
	}
	return map[string]any{"raw": trimmed}
}
