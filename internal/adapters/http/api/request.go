package api

import (
	"fmt"
	"net/http"
	"strings"
)

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}

// allowMethod rejects the request with 405 unless it uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	return false
}

// siteIDFromPath reads the {id} path segment, answering 400 when it is blank.
func siteIDFromPath(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("site id")))
		return "", false
	}
	return id, true
}
