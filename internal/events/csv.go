package events

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// GatherCSV reads force-push events for org from a CSV export. The file must
// carry a header row with the columns repo_org, repo_name, before and
// timestamp; extra columns are ignored.
func GatherCSV(path, org string, filter Filter) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("events file not found: %s", path)
		}
		return nil, fmt.Errorf("open events file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("events file %s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse events file %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("events file %s is missing columns: %s", path, strings.Join(missing, ", "))
	}

	var rows [][4]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse events file %s: %w", path, err)
		}
		rows = append(rows, [4]string{
			record[cols["repo_org"]],
			record[cols["repo_name"]],
			record[cols["before"]],
			record[cols["timestamp"]],
		})
	}
	return collect(org, rows, filter)
}
