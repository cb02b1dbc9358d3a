package middleware

import (
	"net/http"

	"github.com/contentdesk/admin-api/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
