package handlers

import (
	"net/http"

	"alert-service/internal/lifecycle"
)

// codeForbidden is the stable code for cross-meter access rejections. It is
// an HTTP-surface concern, so it lives here rather than in the lifecycle
// taxonomy.
const codeForbidden = "FORBIDDEN"

// errorBody is the structured error envelope every endpoint returns.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error body with the given status and code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError maps a lifecycle error to its HTTP status and writes the
// structured body.
func writeDomainError(w http.ResponseWriter, err error) {
	code := lifecycle.ErrorCode(err)
	writeError(w, statusForCode(code), code, err.Error())
}

func statusForCode(code string) int {
	switch code {
	case lifecycle.CodeValidation:
		return http.StatusBadRequest
	case lifecycle.CodeNotFound:
		return http.StatusNotFound
	case lifecycle.CodeDuplicateSuppressed:
		return http.StatusConflict
	case lifecycle.CodeConnectivity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
