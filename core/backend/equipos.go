package backend

import (
	"net/http"

	"github.com/goccy/go-json"
)

// listEquipos issues one unfiltered select; row-level security narrows the
// result per caller (ADMIN sees all, RESPONSABLE only owned equipment).
func (b *Backend) listEquipos(w http.ResponseWriter, r *http.Request) {
	var rows []map[string]interface{}
	if err := b.scopedClient(r).From("equipos").Select("*").Get(r.Context(), &rows); err != nil {
		writeError(w, r, badRequest("%s", err))
		return
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// createEquipo inserts an equipment record. The payload is passed through
// sparsely, the upstream schema and policies decide what is acceptable.
func (b *Backend) createEquipo(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, badRequest("invalid request body: %s", err))
		return
	}
	if len(payload) == 0 {
		writeError(w, r, badRequest("empty payload"))
		return
	}

	var rows []map[string]interface{}
	if err := b.scopedClient(r).From("equipos").Insert(r.Context(), payload, &rows); err != nil {
		writeError(w, r, badRequest("%s", err))
		return
	}
	if len(rows) == 0 {
		writeError(w, r, internal("insert returned no row"))
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}
