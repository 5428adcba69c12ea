package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query is a fluent builder for one PostgREST request against a table.
// Builder methods return copies, so partially built queries can be reused
// without side effects.
type Query struct {
	client    Client
	table     string
	selection string
	filters   []string
	limit     int
}

// From returns a new query builder for the given table.
func (c Client) From(table string) Query {
	return Query{client: c, table: table}
}

// Select sets the requested columns, in PostgREST syntax ("*" or a
// comma-separated list).
func (q Query) Select(columns string) Query {
	q.selection = columns
	return q
}

// Eq adds an equality filter on a column.
func (q Query) Eq(column string, value string) Query {
	filter := url.QueryEscape(column) + "=" + url.QueryEscape("eq."+value)
	// we want a true copy to avoid side effects
	q.filters = append(append([]string{}, q.filters...), filter)
	return q
}

// Limit caps the number of returned rows.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

func (q Query) path() string {
	path := "/rest/v1/" + q.table
	var parameters []string
	if q.selection != "" {
		parameters = append(parameters, "select="+url.QueryEscape(q.selection))
	}
	parameters = append(parameters, q.filters...)
	if q.limit > 0 {
		parameters = append(parameters, "limit="+strconv.Itoa(q.limit))
	}
	if len(parameters) > 0 {
		path += "?" + strings.Join(parameters, "&")
	}
	return path
}

// Get executes the select and decodes the rows into result, typically a
// *[]map[string]interface{}. Row-level security applies with the client's
// token; an empty result is not an error.
func (q Query) Get(ctx context.Context, result interface{}) error {
	_, err := q.client.roundTrip(ctx, http.MethodGet, q.path(), nil, nil, result)
	return err
}

// Insert posts body as a new row and decodes the created rows into result.
// PostgREST answers with an array even for a single-row insert.
func (q Query) Insert(ctx context.Context, body interface{}, result interface{}) error {
	header := map[string]string{"Prefer": "return=representation"}
	_, err := q.client.roundTrip(ctx, http.MethodPost, q.path(), header, body, result)
	return err
}
