package backend

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/sisgemec/sisgemec/core/supabase"
)

// fakeSession is one GoTrue session the fake upstream will hand out.
type fakeSession struct {
	accessToken  string
	refreshToken string
	userID       string
	email        string
}

// fakeSupabase fakes the two upstream surfaces the backend talks to:
// GoTrue under /auth/v1 and PostgREST under /rest/v1. Row-level security is
// simulated by keying visible rows on the bearer token.
type fakeSupabase struct {
	server *httptest.Server

	password  string                  // the accepted password for every user
	sessions  map[string]*fakeSession // keyed by email
	refreshed map[string]*fakeSession // keyed by refresh token

	profileColumns []string // columns the profiles table has
	profiles       []map[string]interface{}
	ownProfile     map[string][]map[string]interface{} // token -> rows of an unfiltered select
	estados        []map[string]interface{}
	equipos        map[string][]map[string]interface{} // token -> visible rows
	failTables     map[string]string                   // table -> PostgREST error message

	profileQueries    int
	estadoQueries     int
	insertedProfiles  []map[string]interface{}
	insertedServicios []map[string]interface{}
}

func newFakeSupabase(t *testing.T) *fakeSupabase {
	f := &fakeSupabase{
		password:       "secret",
		sessions:       map[string]*fakeSession{},
		refreshed:      map[string]*fakeSession{},
		profileColumns: []string{"user_id"},
		ownProfile:     map[string][]map[string]interface{}{},
		equipos:        map[string][]map[string]interface{}{},
		failTables:     map[string]string{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// newTestRouter assembles the full backend against the fake upstream.
func newTestRouter(f *fakeSupabase) *mux.Router {
	router := mux.NewRouter()
	New(&Builder{
		Supabase: supabase.New(f.server.URL, "anon-key"),
		Router:   router,
	})
	return router
}

func (f *fakeSupabase) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		s, ok := f.sessions[body["email"]]
		if !ok || body["password"] != f.password {
			respond(w, http.StatusBadRequest, map[string]string{"error_description": "Invalid login credentials"})
			return
		}
		respond(w, http.StatusOK, sessionJSON(s))

	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		s, ok := f.refreshed[body["refresh_token"]]
		if !ok {
			respond(w, http.StatusBadRequest, map[string]string{"error_description": "Invalid Refresh Token"})
			return
		}
		respond(w, http.StatusOK, sessionJSON(s))

	case r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == "/auth/v1/user":
		token := bearerOf(r)
		for _, s := range f.sessions {
			if s.accessToken == token {
				respond(w, http.StatusOK, map[string]string{"id": s.userID, "email": s.email})
				return
			}
		}
		respond(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})

	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		f.handleRest(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeSupabase) handleRest(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	if message, ok := f.failTables[table]; ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": message})
		return
	}
	token := bearerOf(r)
	column, value, filtered := eqFilter(r.URL.Query())

	switch table {
	case "profiles":
		if r.Method == http.MethodPost {
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.insertedProfiles = append(f.insertedProfiles, body)
			respond(w, http.StatusCreated, []map[string]interface{}{body})
			return
		}
		f.profileQueries++
		if !filtered {
			rows := f.ownProfile[token]
			if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && len(rows) > limit {
				rows = rows[:limit]
			}
			respondRows(w, rows)
			return
		}
		if !contains(f.profileColumns, column) {
			respond(w, http.StatusBadRequest,
				map[string]string{"message": fmt.Sprintf("column profiles.%s does not exist", column)})
			return
		}
		respondRows(w, matchRows(f.profiles, column, value))

	case "estados_servicio":
		f.estadoQueries++
		respondRows(w, matchRows(f.estados, column, value))

	case "equipos":
		if r.Method == http.MethodPost {
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			body["equipo_id"] = 1
			respond(w, http.StatusCreated, []map[string]interface{}{body})
			return
		}
		respondRows(w, f.equipos[token])

	case "servicios":
		if r.Method == http.MethodPost {
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.insertedServicios = append(f.insertedServicios, body)
			created := map[string]interface{}{"servicio_id": 99}
			for k, v := range body {
				created[k] = v
			}
			respond(w, http.StatusCreated, []map[string]interface{}{created})
			return
		}
		respondRows(w, nil)

	default:
		respond(w, http.StatusNotFound, map[string]string{"message": "relation does not exist"})
	}
}

func bearerOf(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// eqFilter extracts the first PostgREST equality filter from the query.
func eqFilter(query map[string][]string) (column, value string, ok bool) {
	for key, values := range query {
		if len(values) > 0 && strings.HasPrefix(values[0], "eq.") {
			return key, strings.TrimPrefix(values[0], "eq."), true
		}
	}
	return "", "", false
}

func matchRows(rows []map[string]interface{}, column, value string) []map[string]interface{} {
	var matches []map[string]interface{}
	for _, row := range rows {
		if cell, ok := row[column]; ok && fmt.Sprintf("%v", cell) == value {
			matches = append(matches, row)
		}
	}
	return matches
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func sessionJSON(s *fakeSession) map[string]interface{} {
	return map[string]interface{}{
		"access_token":  s.accessToken,
		"refresh_token": s.refreshToken,
		"user":          map[string]string{"id": s.userID, "email": s.email},
	}
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	body, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func respondRows(w http.ResponseWriter, rows []map[string]interface{}) {
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	respond(w, http.StatusOK, rows)
}

// doRequest drives the router like an HTTP client would.
func doRequest(router *mux.Router, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, result interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), result))
}
