package backend

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sisgemec/sisgemec/core/supabase"
)

// The profiles table schema is owned upstream and has shifted over time.
// The logical lookup and key fields are resolved against ordered lists of
// candidate column names, first hit wins.
var (
	profileLookupColumns = []string{"user_id", "id"}
	profileKeyColumns    = []string{"id", "user_id", "profile_id"}
)

const defaultRole = "USER"

type profile struct {
	Key   string
	Email string
	Role  string
}

// resolveProfileByUserID returns the profile of the given user, trying each
// candidate lookup column in turn. A candidate the schema does not have
// answers 400 from PostgREST and counts as "no rows". A nil profile with a
// nil error means no profile exists.
func resolveProfileByUserID(ctx context.Context, sb supabase.Client, userID string) (*profile, error) {
	for _, column := range profileLookupColumns {
		var rows []map[string]interface{}
		err := sb.From("profiles").Select("*").Eq(column, userID).Get(ctx, &rows)
		if err != nil {
			var upstream *supabase.UpstreamError
			if errors.As(err, &upstream) && upstream.StatusCode == http.StatusBadRequest {
				continue
			}
			return nil, err
		}
		if len(rows) > 0 {
			return profileFromRow(rows[0]), nil
		}
	}
	return nil, nil
}

// resolveCurrentProfile returns the profile of the calling user without any
// filter; row-level security narrows the result to the caller's own row.
// Anything other than exactly one row means the profile is missing or the
// policy does not let the caller see it.
func resolveCurrentProfile(ctx context.Context, sb supabase.Client) (*profile, error) {
	var rows []map[string]interface{}
	if err := sb.From("profiles").Select("*").Limit(1).Get(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, nil
	}
	return profileFromRow(rows[0]), nil
}

// provisionProfile creates a minimal profile row for a first-time login.
func provisionProfile(ctx context.Context, sb supabase.Client, user *supabase.User) error {
	body := map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    defaultRole,
		"nombre":  "Usuario",
	}
	var rows []map[string]interface{}
	return sb.From("profiles").Insert(ctx, body, &rows)
}

func profileFromRow(row map[string]interface{}) *profile {
	p := &profile{Role: defaultRole}
	for _, column := range profileKeyColumns {
		if value, ok := row[column]; ok && value != nil {
			p.Key = stringify(value)
			break
		}
	}
	if email, ok := row["email"].(string); ok {
		p.Email = email
	}
	if role, ok := row["role"].(string); ok && role != "" {
		p.Role = role
	}
	return p
}

// stringify renders a decoded JSON value as its wire representation. The
// upstream primary key may be a UUID string or a numeric id.
func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
