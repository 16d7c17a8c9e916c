package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
	"github.com/Cortexa-LLC/mcp/src/docextract/store"
)

// clientError is what a user sees in place of an internal error.
type clientError struct {
	status  int
	message string
}

var sentinelErrors = []struct {
	err error
	clientError
}{
	{extract.ErrTooLarge, clientError{http.StatusRequestEntityTooLarge, "the file is larger than the upload limit"}},
	{extract.ErrUnsupportedFormat, clientError{http.StatusUnsupportedMediaType, "this file format cannot be extracted"}},
	{extract.ErrEmptyResult, clientError{http.StatusUnprocessableEntity, "no content could be extracted from the document"}},
	{extract.ErrNotFound, clientError{http.StatusBadRequest, "the uploaded file could not be read"}},
	{store.ErrNotFound, clientError{http.StatusNotFound, "extraction not found"}},
}

// clientSafePatterns maps substrings of error text to client-safe messages.
var clientSafePatterns = []struct {
	pattern string
	clientError
}{
	{"context deadline", clientError{http.StatusGatewayTimeout, "extraction timed out"}},
	{"timeout", clientError{http.StatusGatewayTimeout, "extraction timed out"}},
	{"context canceled", clientError{http.StatusServiceUnavailable, "request cancelled"}},
	{"tesseract is not installed", clientError{http.StatusUnprocessableEntity, "the document needs OCR, which is not available on this server"}},
}

// sanitizeForClient converts err into a status code and a message that is
// safe to show the user. The full error is logged.
func sanitizeForClient(logger *slog.Logger, err error) (int, string) {
	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			logger.Debug("sanitizing error for client", "original", err.Error(), "sanitized", s.message)
			return s.status, s.message
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range clientSafePatterns {
		if strings.Contains(lower, p.pattern) {
			logger.Debug("sanitizing error for client", "original", err.Error(), "sanitized", p.message)
			return p.status, p.message
		}
	}

	logger.Error("extraction error (sanitized for client)", "error", err)
	return http.StatusInternalServerError, "extraction failed"
}
