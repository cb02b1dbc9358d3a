package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/httputil"
)

func writeData(w http.ResponseWriter, status int, data any) {
	httputil.WriteData(w, status, data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	httputil.WriteMessage(w, status, message)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.ValidationError("Request body too large").WithStatus(http.StatusRequestEntityTooLarge)
	}
	return apperrors.ValidationError("Invalid request body")
}
