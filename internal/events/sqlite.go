package events

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// GatherSQLite reads force-push events for org from the pushes table of a
// SQLite database, the format the public force-push datasets ship in.
func GatherSQLite(ctx context.Context, path, org string, filter Filter) (*Set, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite database not found: %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT repo_org, repo_name, before, timestamp FROM pushes WHERE repo_org = ?`, org)
	if err != nil {
		return nil, fmt.Errorf("query sqlite database %s: %w", path, err)
	}
	defer rows.Close()

	var raw [][4]string
	for rows.Next() {
		var r [4]string
		if err := rows.Scan(&r[0], &r[1], &r[2], &r[3]); err != nil {
			return nil, fmt.Errorf("row %d: %w", len(raw)+1, err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query sqlite database %s: %w", path, err)
	}
	return collect(org, raw, filter)
}
