// Package store persists budget snapshots and upload history in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/budgetdash/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register sqlite driver
)

var (
	// ErrNoSnapshot is returned when no snapshot matches.
	ErrNoSnapshot = errors.New("no snapshot")
	// ErrAmbiguousID is returned when an ID prefix matches several snapshots.
	ErrAmbiguousID = errors.New("ambiguous snapshot id")
)

// Store is a SQLite-backed snapshot and upload history store.
type Store struct {
	db *sql.DB
}

// Snapshot describes one stored model snapshot.
type Snapshot struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	FinancialYear string    `json:"financial_year"`
	Note          string    `json:"note"`
	Units         int       `json:"units"`
	CreatedAt     time.Time `json:"created_at"`
}

// Upload is one ingested file or API batch.
type Upload struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Hash       string    `json:"hash"`
	Origin     string    `json:"origin"` // cli, inbox, api, tui
	Rows       int       `json:"rows"`
	Applied    int       `json:"applied"`
	Dropped    int       `json:"dropped"`
	Units      []string  `json:"units"`
	SnapshotID string    `json:"snapshot_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Open opens or creates the store database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores b as the newest snapshot, together with the uploads
// that produced it, in one transaction. Uploads get the new snapshot's ID.
func (s *Store) SaveSnapshot(b model.Budget, note string, uploads ...Upload) (Snapshot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	snap := Snapshot{
		ID:            uuid.NewString(),
		FinancialYear: b.FinancialYear,
		Note:          note,
		Units:         len(b.UnitIDs()),
		CreatedAt:     time.Now().UTC(),
	}

	res, err := tx.Exec(`INSERT INTO snapshots (id, financial_year, note, unit_count, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.FinancialYear, snap.Note, snap.Units, formatTime(snap.CreatedAt))
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Seq, err = res.LastInsertId(); err != nil {
		return Snapshot{}, err
	}

	for _, id := range b.UnitIDs() {
		u := b.Units[id]
		if _, err := tx.Exec(`INSERT INTO snapshot_units (snapshot_id, unit_id, team_name) VALUES (?, ?, ?)`,
			snap.ID, id, u.TeamName); err != nil {
			return Snapshot{}, err
		}

		for _, g := range []model.Group{model.GroupPeople, model.GroupPrograms} {
			for pos, e := range u.Entries(g) {
				_, err := tx.Exec(`INSERT INTO snapshot_spend
					(snapshot_id, unit_id, grp, position, name, amount, value)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
					snap.ID, id, string(g), pos, e.Name, e.Amount, e.Value)
				if err != nil {
					return Snapshot{}, err
				}
			}
		}

		for pos, m := range u.Months {
			_, err := tx.Exec(`INSERT INTO snapshot_months
				(snapshot_id, unit_id, position, date, month, category, actual, anticipated)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				snap.ID, id, pos, m.Date, m.Month, m.Category, m.Actual, m.Anticipated)
			if err != nil {
				return Snapshot{}, err
			}
		}
	}

	for _, up := range uploads {
		up.SnapshotID = snap.ID
		if _, err := insertUpload(tx, up); err != nil {
			return Snapshot{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// LatestSnapshot loads the most recently saved snapshot.
func (s *Store) LatestSnapshot() (model.Budget, Snapshot, error) {
	row := s.db.QueryRow(`SELECT seq, id, financial_year, note, unit_count, created_at
		FROM snapshots ORDER BY seq DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Budget{}, Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return model.Budget{}, Snapshot{}, err
	}
	b, err := s.loadBudget(snap)
	return b, snap, err
}

// LoadSnapshot loads the snapshot whose ID is id or starts with id.
func (s *Store) LoadSnapshot(id string) (model.Budget, Snapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Budget{}, Snapshot{}, ErrNoSnapshot
	}

	rows, err := s.db.Query(`SELECT seq, id, financial_year, note, unit_count, created_at
		FROM snapshots WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY seq DESC LIMIT 2`,
		id, len(id), id)
	if err != nil {
		return model.Budget{}, Snapshot{}, err
	}
	var found []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			_ = rows.Close()
			return model.Budget{}, Snapshot{}, err
		}
		found = append(found, snap)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return model.Budget{}, Snapshot{}, err
	}

	switch len(found) {
	case 0:
		return model.Budget{}, Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, id)
	case 1:
	default:
		return model.Budget{}, Snapshot{}, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}

	b, err := s.loadBudget(found[0])
	return b, found[0], err
}

// ListSnapshots returns up to limit snapshots, newest first. A limit of 0
// or less returns all of them.
func (s *Store) ListSnapshots(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT seq, id, financial_year, note, unit_count, created_at
		FROM snapshots ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SnapshotCount returns the number of stored snapshots.
func (s *Store) SnapshotCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

// Prune deletes all but the newest keep snapshots and returns how many were
// removed. Upload history is kept.
func (s *Store) Prune(keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE seq NOT IN
		(SELECT seq FROM snapshots ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordUpload stores an upload that changed nothing, so it is remembered
// for dedupe without producing a snapshot.
func (s *Store) RecordUpload(up Upload) (Upload, error) {
	return insertUpload(s.db, up)
}

// HasUpload reports whether content with this hash was ingested before.
func (s *Store) HasUpload(hash string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM uploads WHERE hash = ?`, hash).Scan(&n)
	return n > 0, err
}

// ListUploads returns up to limit uploads, newest first. A limit of 0 or
// less returns all of them.
func (s *Store) ListUploads(limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, name, format, hash, origin, row_count, applied_count,
		dropped_count, units, snapshot_id, created_at
		FROM uploads ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Upload
	for rows.Next() {
		var (
			up      Upload
			units   string
			created string
		)
		if err := rows.Scan(&up.ID, &up.Name, &up.Format, &up.Hash, &up.Origin, &up.Rows,
			&up.Applied, &up.Dropped, &units, &up.SnapshotID, &created); err != nil {
			return nil, err
		}
		if units != "" {
			up.Units = strings.Split(units, ",")
		}
		up.CreatedAt = parseTime(created)
		out = append(out, up)
	}
	return out, rows.Err()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertUpload(db execer, up Upload) (Upload, error) {
	if up.ID == "" {
		up.ID = uuid.NewString()
	}
	if up.CreatedAt.IsZero() {
		up.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(`INSERT INTO uploads
		(id, name, format, hash, origin, row_count, applied_count, dropped_count, units, snapshot_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		up.ID, up.Name, up.Format, up.Hash, up.Origin, up.Rows, up.Applied, up.Dropped,
		strings.Join(up.Units, ","), up.SnapshotID, formatTime(up.CreatedAt))
	return up, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		created string
	)
	if err := row.Scan(&snap.Seq, &snap.ID, &snap.FinancialYear, &snap.Note, &snap.Units, &created); err != nil {
		return Snapshot{}, err
	}
	snap.CreatedAt = parseTime(created)
	return snap, nil
}

func (s *Store) loadBudget(snap Snapshot) (model.Budget, error) {
	b := model.Budget{
		FinancialYear: snap.FinancialYear,
		Units:         make(map[string]model.UnitBudget, snap.Units),
	}

	rows, err := s.db.Query(`SELECT unit_id, team_name FROM snapshot_units WHERE snapshot_id = ?`, snap.ID)
	if err != nil {
		return model.Budget{}, err
	}
	for rows.Next() {
		var id, team string
		if err := rows.Scan(&id, &team); err != nil {
			_ = rows.Close()
			return model.Budget{}, err
		}
		b.Units[id] = model.UnitBudget{
			TeamName: team,
			People:   []model.SpendEntry{},
			Programs: []model.SpendEntry{},
			Months:   []model.MonthRecord{},
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return model.Budget{}, err
	}

	spendRows, err := s.db.Query(`SELECT unit_id, grp, name, amount, value FROM snapshot_spend
		WHERE snapshot_id = ? ORDER BY unit_id, grp, position`, snap.ID)
	if err != nil {
		return model.Budget{}, err
	}
	defer func() { _ = spendRows.Close() }()

	for spendRows.Next() {
		var (
			id, grp string
			e       model.SpendEntry
		)
		if err := spendRows.Scan(&id, &grp, &e.Name, &e.Amount, &e.Value); err != nil {
			return model.Budget{}, err
		}
		u, ok := b.Units[id]
		if !ok {
			continue
		}
		if model.Group(grp) == model.GroupPeople {
			u.People = append(u.People, e)
		} else {
			u.Programs = append(u.Programs, e)
		}
		b.Units[id] = u
	}
	if err := spendRows.Err(); err != nil {
		return model.Budget{}, err
	}

	monthRows, err := s.db.Query(`SELECT unit_id, date, month, category, actual, anticipated
		FROM snapshot_months WHERE snapshot_id = ? ORDER BY unit_id, position`, snap.ID)
	if err != nil {
		return model.Budget{}, err
	}
	defer func() { _ = monthRows.Close() }()

	for monthRows.Next() {
		var (
			id string
			m  model.MonthRecord
		)
		if err := monthRows.Scan(&id, &m.Date, &m.Month, &m.Category, &m.Actual, &m.Anticipated); err != nil {
			return model.Budget{}, err
		}
		u, ok := b.Units[id]
		if !ok {
			continue
		}
		u.Months = append(u.Months, m)
		b.Units[id] = u
	}
	return b, monthRows.Err()
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
