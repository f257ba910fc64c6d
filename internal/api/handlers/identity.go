package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
)

// Identity echoes the authenticated caller, whichever credential was used.
func Identity(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	writeJSON(w, http.StatusOK, id)
}
