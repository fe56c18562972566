package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/predcompare/internal/compare"
)

// RunMeta describes where a report came from.
type RunMeta struct {
	TestFile    string
	RefFile     string
	ToolVersion string
	// ConfigJSON is the effective configuration of the run.
	ConfigJSON string
}

// ComparisonRun is a stored comparison summary.
type ComparisonRun struct {
	RunID           string             `json:"run_id"`
	TestFile        string             `json:"test_file"`
	RefFile         string             `json:"ref_file"`
	Mode            string             `json:"mode"`
	TestCount       int                `json:"test_count"`
	RefCount        int                `json:"ref_count"`
	MissingCount    int                `json:"missing_count"`
	MismatchedCount int                `json:"mismatched_count"`
	ToolVersion     string             `json:"tool_version"`
	ConfigJSON      string             `json:"config"`
	RMSE            map[string]float64 `json:"rmse,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// StoredMismatch is one mismatched field of a stored run.
type StoredMismatch struct {
	FilePath string `json:"filepath"`
	Field    string `json:"field"`
	Ref      string `json:"ref"`
	Test     string `json:"test"`
}

// SaveReport stores the full report under a new run ID, in one transaction.
func (db *DB) SaveReport(meta RunMeta, report *compare.Report) (string, error) {
	runID := uuid.NewString()
	configJSON := meta.ConfigJSON
	if configJSON == "" {
		configJSON = "{}"
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO comparison_runs (
			run_id, test_file, ref_file, mode, test_count, ref_count,
			missing_count, mismatched_count, tool_version, config_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, meta.TestFile, meta.RefFile, string(report.Policy),
		report.TestCount, report.RefCount,
		len(report.MissingIdentifiers), len(report.Mismatches),
		meta.ToolVersion, configJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert comparison run: %w", err)
	}

	for i, id := range report.MissingIdentifiers {
		if _, err := tx.Exec(
			`INSERT INTO comparison_missing (run_id, seq, filepath) VALUES (?, ?, ?)`,
			runID, i, id,
		); err != nil {
			return "", fmt.Errorf("failed to insert missing filepath %q: %w", id, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO comparison_mismatches (run_id, seq, filepath, field, ref_value, test_value)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare mismatch insert: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for _, fm := range report.Mismatches {
		for _, m := range fm.Entries {
			if _, err := stmt.Exec(runID, seq, fm.Identifier, m.Field, m.Ref.String(), m.Test.String()); err != nil {
				return "", fmt.Errorf("failed to insert mismatch for %q: %w", fm.Identifier, err)
			}
			seq++
		}
	}

	for _, mc := range compare.MetricClasses {
		rmse, ok := report.RMSE[mc]
		if !ok {
			continue
		}
		st := report.ErrorStats[mc]
		if _, err := tx.Exec(`
			INSERT INTO comparison_rmse (run_id, metric_class, rmse, sample_count, p95, max_error)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, mc.String(), rmse, st.Count, st.P95, st.Max,
		); err != nil {
			return "", fmt.Errorf("failed to insert %s rmse: %w", mc, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit comparison run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (db *DB) ListRuns(limit int) ([]ComparisonRun, error) {
	query := `
		SELECT run_id, test_file, ref_file, mode, test_count, ref_count,
		       missing_count, mismatched_count, tool_version, config_json, created_at
		FROM comparison_runs
		ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison runs: %w", err)
	}
	defer rows.Close()

	var runs []ComparisonRun
	for rows.Next() {
		var r ComparisonRun
		if err := rows.Scan(
			&r.RunID,
			&r.TestFile,
			&r.RefFile,
			&r.Mode,
			&r.TestCount,
			&r.RefCount,
			&r.MissingCount,
			&r.MismatchedCount,
			&r.ToolVersion,
			&r.ConfigJSON,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comparison run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comparison runs: %w", err)
	}

	for i := range runs {
		rmse, err := db.runRMSE(runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].RMSE = rmse
	}
	return runs, nil
}

// GetRun returns a single run by ID, or sql.ErrNoRows.
func (db *DB) GetRun(runID string) (*ComparisonRun, error) {
	var r ComparisonRun
	err := db.QueryRow(`
		SELECT run_id, test_file, ref_file, mode, test_count, ref_count,
		       missing_count, mismatched_count, tool_version, config_json, created_at
		FROM comparison_runs
		WHERE run_id = ?`, runID).Scan(
		&r.RunID,
		&r.TestFile,
		&r.RefFile,
		&r.Mode,
		&r.TestCount,
		&r.RefCount,
		&r.MissingCount,
		&r.MismatchedCount,
		&r.ToolVersion,
		&r.ConfigJSON,
		&r.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get comparison run %s: %w", runID, err)
	}
	if r.RMSE, err = db.runRMSE(runID); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) runRMSE(runID string) (map[string]float64, error) {
	rows, err := db.Query(`SELECT metric_class, rmse FROM comparison_rmse WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rmse for run %s: %w", runID, err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var class string
		var v float64
		if err := rows.Scan(&class, &v); err != nil {
			return nil, fmt.Errorf("failed to scan rmse: %w", err)
		}
		out[class] = v
	}
	return out, rows.Err()
}

// RunMismatches returns the stored mismatches of a run in report order.
func (db *DB) RunMismatches(runID string) ([]StoredMismatch, error) {
	rows, err := db.Query(`
		SELECT filepath, field, ref_value, test_value
		FROM comparison_mismatches
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mismatches for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []StoredMismatch
	for rows.Next() {
		var m StoredMismatch
		if err := rows.Scan(&m.FilePath, &m.Field, &m.Ref, &m.Test); err != nil {
			return nil, fmt.Errorf("failed to scan mismatch: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RunMissing returns the stored missing filepaths of a run in report order.
func (db *DB) RunMissing(runID string) ([]string, error) {
	rows, err := db.Query(`SELECT filepath FROM comparison_missing WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing filepaths for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan missing filepath: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and, through cascading keys, its details.
func (db *DB) DeleteRun(runID string) error {
	res, err := db.Exec(`DELETE FROM comparison_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete comparison run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
