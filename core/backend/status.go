package backend

import (
	"context"

	"github.com/sisgemec/sisgemec/core/supabase"
)

// estadoNuevoColumns are the candidate catalog columns under which the
// default service status may be keyed.
var estadoNuevoColumns = []string{"codigo", "nombre"}

// resolveEstadoNuevo looks up the identifier of the "NUEVO" service status
// in the catalog. Best effort: exactly one match with a non-null id wins;
// when no known column yields one, it returns no value and the caller omits
// the field so the database default applies.
func resolveEstadoNuevo(ctx context.Context, sb supabase.Client) (interface{}, bool) {
	for _, column := range estadoNuevoColumns {
		var rows []map[string]interface{}
		err := sb.From("estados_servicio").Select("id," + column).Eq(column, "NUEVO").Get(ctx, &rows)
		if err != nil || len(rows) != 1 {
			continue
		}
		if id, ok := rows[0]["id"]; ok && id != nil {
			return id, true
		}
	}
	return nil, false
}
