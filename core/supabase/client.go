/*Package supabase provides a small REST client for a Supabase project.

It talks to two upstream surfaces: GoTrue for identity (password sign-in,
sign-out, token introspection, token refresh) and PostgREST for data access.
A client is a plain value; WithToken returns a copy bound to one caller's
token, so every request gets its own scoped client and row-level security
remains the sole authorization boundary. The client never carries a
service-role credential.
*/
package supabase

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Client provides access to the Supabase REST APIs.
type Client struct {
	baseURL    string
	anonKey    string
	token      string
	httpClient *http.Client
}

// New creates a client for the project at baseURL, authenticated with the
// anonymous API key.
//
// WithToken returns a per-request scoped copy.
func New(baseURL, anonKey string) Client {
	return Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// WithToken returns a new client bound to the given bearer token. The token
// is attached to every request issued through the returned client.
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// User is the GoTrue representation of an authenticated user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the result of a password sign-in or a token refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// SignInWithPassword authenticates email and password against GoTrue.
// Rejected credentials yield a nil session and a nil error; only transport
// or unexpected upstream failures return an error.
func (c Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	status, err := c.roundTrip(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", nil, body, &session)
	if err != nil {
		if isRejection(status) {
			return nil, nil
		}
		return nil, err
	}
	if session.AccessToken == "" || session.User == nil {
		return nil, nil
	}
	return &session, nil
}

// SignOut revokes the session of the token this client is scoped to.
func (c Client) SignOut(ctx context.Context) error {
	_, err := c.roundTrip(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	return err
}

// GetUser introspects the token this client is scoped to. An invalid or
// expired token yields a nil user and a nil error.
func (c Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	status, err := c.roundTrip(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &user)
	if err != nil {
		if isRejection(status) {
			return nil, nil
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// RefreshSession exchanges a refresh token for a new session. A rejected
// refresh token yields a nil session and a nil error.
func (c Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var session Session
	status, err := c.roundTrip(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", nil, body, &session)
	if err != nil {
		if isRejection(status) {
			return nil, nil
		}
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

// isRejection reports whether the upstream status means "the credential was
// not accepted", as opposed to the upstream being broken.
func isRejection(status int) bool {
	return status == http.StatusBadRequest ||
		status == http.StatusUnauthorized ||
		status == http.StatusForbidden ||
		status == http.StatusUnprocessableEntity
}

// roundTrip issues one request against the upstream. Every request carries
// the anonymous API key; the Authorization bearer is the scoped token if one
// is set, the anonymous key otherwise.
//
// body can also be a []byte. result can be nil.
func (c Client) roundTrip(ctx context.Context, method, path string, header map[string]string, body interface{}, result interface{}) (int, error) {
	var err error
	var reader io.Reader
	if body != nil {
		j, ok := body.([]byte)
		if !ok {
			j, err = json.Marshal(body)
			if err != nil {
				return http.StatusBadRequest, err
			}
		}
		reader = bytes.NewBuffer(j)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	r.Header.Set("apikey", c.anonKey)
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		r.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range header {
		r.Header.Set(key, value)
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	defer res.Body.Close()
	resBody, _ := io.ReadAll(res.Body)

	status := res.StatusCode
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return status, newUpstreamError(status, resBody)
	}

	if len(resBody) > 0 && result != nil {
		if raw, ok := result.(*[]byte); ok {
			*raw = resBody
		} else {
			err = json.Unmarshal(resBody, result)
		}
	}
	return status, err
}
