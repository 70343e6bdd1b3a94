package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CachedRegister is the last payload fetched for one ficha and month.
type CachedRegister struct {
	FichaID   int64
	Year      int
	Month     int
	Payload   []byte
	FetchedAt time.Time
}

func (db *DB) SaveRegister(fichaID int64, year, month int, payload []byte) error {
	_, err := db.Exec(
		`INSERT INTO registers (ficha_id, year, month, payload, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(ficha_id, year, month) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		fichaID, year, month, payload, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving register: %w", err)
	}
	return nil
}

// GetRegister returns nil, nil when nothing is cached for the month.
func (db *DB) GetRegister(fichaID int64, year, month int) (*CachedRegister, error) {
	r := CachedRegister{FichaID: fichaID, Year: year, Month: month}
	var fetched string
	err := db.QueryRow(
		"SELECT payload, fetched_at FROM registers WHERE ficha_id = ? AND year = ? AND month = ?",
		fichaID, year, month,
	).Scan(&r.Payload, &fetched)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying register: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, fetched); err == nil {
		r.FetchedAt = t
	}
	return &r, nil
}

// ListRegisters returns the cached months of a ficha, newest first, without
// their payloads.
func (db *DB) ListRegisters(fichaID int64) ([]CachedRegister, error) {
	rows, err := db.Query(
		`SELECT year, month, fetched_at FROM registers
		 WHERE ficha_id = ?
		 ORDER BY year DESC, month DESC`,
		fichaID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying registers: %w", err)
	}
	defer rows.Close()

	var out []CachedRegister
	for rows.Next() {
		r := CachedRegister{FichaID: fichaID}
		var fetched string
		if err := rows.Scan(&r.Year, &r.Month, &fetched); err != nil {
			return nil, fmt.Errorf("scanning register: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, fetched); err == nil {
			r.FetchedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
