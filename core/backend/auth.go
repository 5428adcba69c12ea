package backend

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sisgemec/sisgemec/core/access"
	"github.com/sisgemec/sisgemec/core/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

type sessionResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsValid bool   `json:"is_valid"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rlog := logger.FromContext(ctx)

	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, badRequest("invalid request body: %s", err))
		return
	}

	session, err := b.supabase.SignInWithPassword(ctx, request.Email, request.Password)
	if err != nil {
		writeError(w, r, internal("authentication failed: %s", err))
		return
	}
	if session == nil {
		writeError(w, r, unauthorized("invalid credentials"))
		return
	}

	// The role is an application-level concept GoTrue knows nothing about;
	// it lives in the profiles table. A first-time login gets a minimal
	// profile provisioned; profile trouble must not abort the login.
	role := defaultRole
	scoped := b.supabase.WithToken(session.AccessToken)
	profile, err := resolveProfileByUserID(ctx, scoped, session.User.ID)
	switch {
	case err != nil:
		rlog.WithError(err).Warnln("profile lookup failed, continuing with default role")
	case profile == nil:
		if err := provisionProfile(ctx, scoped, session.User); err != nil {
			rlog.WithError(err).Warnln("could not auto-provision profile")
		}
	default:
		role = profile.Role
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		UserID:       session.User.ID,
		Email:        session.User.Email,
		Role:         role,
	})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	if err := b.scopedClient(r).SignOut(r.Context()); err != nil {
		writeError(w, r, internal("could not close session: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Sesión cerrada exitosamente"})
}

func (b *Backend) session(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scoped := b.scopedClient(r)

	user, err := scoped.GetUser(ctx)
	if err != nil {
		writeError(w, r, internal("session verification failed: %s", err))
		return
	}
	if user == nil {
		writeError(w, r, unauthorized("invalid token"))
		return
	}

	profile, err := resolveProfileByUserID(ctx, scoped, user.ID)
	if err != nil {
		writeError(w, r, internal("profile query failed: %s", err))
		return
	}
	if profile == nil {
		writeError(w, r, notFound("profile not found"))
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    profile.Role,
		IsValid: true,
	})
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// the bearer credential of this request is the refresh token
	session, err := b.supabase.RefreshSession(ctx, access.TokenFromContext(ctx))
	if err != nil {
		writeError(w, r, unauthorized("could not refresh token: %s", err))
		return
	}
	if session == nil {
		writeError(w, r, unauthorized("could not refresh token"))
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}
