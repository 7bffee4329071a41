package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// notFound converts sql.ErrNoRows into ErrNotFound with some context.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// exists runs a SELECT COUNT(*) style query and reports whether it matched anything.
func exists(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

// in expands a query containing "IN (?)" for the given slice and rebinds it for the driver.
func in(db *sqlx.DB, query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), a, nil
}

// replaceLinks rewrites a many-to-many link table for one owner row inside tx.
func replaceLinks(ctx context.Context, tx *sqlx.Tx, table, ownerCol, targetCol string, ownerID int64, targetIDs []int64) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, ownerCol), ownerID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)", table, ownerCol, targetCol)
	seen := make(map[int64]bool, len(targetIDs))
	for _, id := range targetIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.ExecContext(ctx, insert, ownerID, id); err != nil {
			return fmt.Errorf("failed to link %s: %w", table, err)
		}
	}
	return nil
}

// likePattern escapes LIKE wildcards with '!' and wraps the term for a substring match.
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(term) + "%"
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
