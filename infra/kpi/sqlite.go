// Package kpi stores charger KPIs in SQLite and feeds them from dispatch
// events.
package kpi

import (
	"database/sql"

	_ "modernc.org/sqlite"

	core "github.com/kilianp07/wrsn/core/kpi"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS charger_kpi (
        run_id TEXT,
        charger_id TEXT,
        decisions INTEGER,
        rejections INTEGER,
        depletions INTEGER,
        refills INTEGER,
        energy_spent REAL,
        busy_time REAL,
        PRIMARY KEY(run_id, charger_id)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts the record or adds it to the existing one.
func (s *SQLiteStore) Add(r core.Record) error {
	_, err := s.db.Exec(`INSERT INTO charger_kpi
        (run_id, charger_id, decisions, rejections, depletions, refills, energy_spent, busy_time)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(run_id, charger_id) DO UPDATE SET
            decisions = decisions + excluded.decisions,
            rejections = rejections + excluded.rejections,
            depletions = depletions + excluded.depletions,
            refills = refills + excluded.refills,
            energy_spent = energy_spent + excluded.energy_spent,
            busy_time = busy_time + excluded.busy_time`,
		r.RunID, r.ChargerID, r.Decisions, r.Rejections, r.Depletions, r.Refills, r.EnergySpent, r.BusyTime)
	return err
}

// Query returns the records of runID ordered by charger.
func (s *SQLiteStore) Query(runID string) ([]core.Record, error) {
	rows, err := s.db.Query(`SELECT run_id, charger_id, decisions, rejections, depletions, refills, energy_spent, busy_time
        FROM charger_kpi WHERE run_id = ? ORDER BY charger_id`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var r core.Record
		if err := rows.Scan(&r.RunID, &r.ChargerID, &r.Decisions, &r.Rejections, &r.Depletions, &r.Refills, &r.EnergySpent, &r.BusyTime); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Runs lists the run ids present in the store.
func (s *SQLiteStore) Runs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT run_id FROM charger_kpi ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
