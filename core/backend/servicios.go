package backend

import (
	"net/http"

	"github.com/goccy/go-json"
)

type servicioCreateRequest struct {
	// EquipoID is type-agnostic, the upstream schema may key equipment by
	// UUID, string or integer.
	EquipoID         interface{} `json:"equipo_id"`
	Descripcion      *string     `json:"descripcion"`
	EstadoServicioID interface{} `json:"estado_servicio_id"`
}

// listServicios issues one unfiltered select under row-level security.
func (b *Backend) listServicios(w http.ResponseWriter, r *http.Request) {
	var rows []map[string]interface{}
	if err := b.scopedClient(r).From("servicios").Select("*").Get(r.Context(), &rows); err != nil {
		writeError(w, r, badRequest("%s", err))
		return
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// createServicio creates a service ticket for an equipment record. Whether
// the caller may create one for that equipment is decided entirely by
// row-level security.
func (b *Backend) createServicio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request servicioCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, badRequest("invalid request body: %s", err))
		return
	}
	if request.EquipoID == nil {
		writeError(w, r, badRequest("equipo_id is required"))
		return
	}

	scoped := b.scopedClient(r)
	insert := map[string]interface{}{
		"equipo_id":   request.EquipoID,
		"descripcion": request.Descripcion,
	}

	// the catalog lookup is strictly conditional on the caller not having
	// supplied a status
	estado := request.EstadoServicioID
	if estado == nil {
		if id, ok := resolveEstadoNuevo(ctx, scoped); ok {
			estado = id
		}
	}
	if estado != nil {
		insert["estado_servicio_id"] = estado
	}

	var rows []map[string]interface{}
	if err := scoped.From("servicios").Insert(ctx, insert, &rows); err != nil {
		writeError(w, r, badRequest("%s", err))
		return
	}
	if len(rows) == 0 {
		writeError(w, r, internal("insert returned no row"))
		return
	}
	writeJSON(w, http.StatusCreated, rows[0])
}
