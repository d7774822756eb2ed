package api

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"hydra/ingest"

	"go.uber.org/zap"
)

// maxErrorMessageLength bounds error text sent to clients
const maxErrorMessageLength = 512

// errorResponse is the body of every non-2xx answer
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with proper error handling
func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
	}
}

// writeError logs err in full and sends message to the client. Server errors
// are logged at error level, client errors at debug.
func writeError(w http.ResponseWriter, statusCode int, message string, err error, logger *zap.SugaredLogger) {
	if logger != nil {
		fields := []interface{}{"status_code", statusCode}
		if err != nil {
			fields = append(fields, "error", err.Error())
		}
		if statusCode >= http.StatusInternalServerError {
			logger.Errorw(message, fields...)
		} else {
			logger.Debugw(message, fields...)
		}
	}

	if len(message) > maxErrorMessageLength {
		message = message[:maxErrorMessageLength-3] + "..."
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// formatFromContentType maps a request media type to a log encoding.
// Unknown or missing types fall back to content sniffing.
func formatFromContentType(contentType string) ingest.Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ingest.FormatAuto
	}
	switch strings.ToLower(mediaType) {
	case "application/json":
		return ingest.FormatJSON
	case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
		return ingest.FormatMsgpack
	default:
		return ingest.FormatAuto
	}
}
