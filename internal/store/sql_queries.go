package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-auth-keeper/models"
)

const authStateTable = "auth_state"

// buildUpsertAuthState builds a single multi-row upsert for every field of
// payload, in sorted field order.
func buildUpsertAuthState(payload models.SyncPayload, updatedAt time.Time) (string, []any, error) {
	if len(payload) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrBuildingSQLQuery)
	}

	q := sq.Insert(authStateTable).Columns("field", "value", "updated_at")
	for _, f := range payload.Fields() {
		q = q.Values(string(f), payload[f], updatedAt)
	}

	query, args, err := q.
		Suffix("ON CONFLICT(field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

func buildSelectAuthState() (string, []any, error) {
	query, args, err := sq.Select("field", "value", "updated_at").From(authStateTable).OrderBy("field").ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildDeleteAuthState deletes the given fields, or the whole table when
// fields is empty.
func buildDeleteAuthState(fields []models.Field) (string, []any, error) {
	q := sq.Delete(authStateTable)
	if len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, string(f))
		}
		q = q.Where(sq.Eq{"field": names})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
