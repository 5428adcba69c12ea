package backend

import (
	"net/http"
)

type meResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// me returns the calling user's profile, read under row-level security.
func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	profile, err := resolveCurrentProfile(r.Context(), b.scopedClient(r))
	if err != nil {
		writeError(w, r, internal("profile query failed: %s", err))
		return
	}
	if profile == nil {
		writeError(w, r, notFound("profile not found or not visible under row-level security"))
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		UserID: profile.Key,
		Email:  profile.Email,
		Role:   profile.Role,
	})
}
