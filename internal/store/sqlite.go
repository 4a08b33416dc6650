package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ivlev/floodcheck/internal/analyzer"
	"github.com/ivlev/floodcheck/internal/models"
)

// Store keeps the history of analysis runs
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the SQLite database at path and migrates it
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	s := New(db)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type Run struct {
	ID        string
	StartedAt time.Time
	Dir       string
	Mode      string
	Total     int
	Flooded   int
	Errors    int
}

type Result struct {
	Seq          int
	Filename     string
	TestName     string
	WaterLevelFt int
	Record       analyzer.Record
}

// SaveRun stores the batch and all of its rows in one transaction and
// returns the new run ID.
func (s *Store) SaveRun(startedAt time.Time, b *models.BatchResult) (string, error) {
	id := uuid.NewString()
	total, flooded, failed := b.Counts()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs (id, started_at, dir, mode, total, flooded, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, startedAt.UTC(), b.Dir, b.Mode.String(), total, flooded, failed); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results (run_id, seq, filename, test_name, water_level_ft, blue_pixels, total_pixels, blue_ratio, avg_r, avg_g, avg_b, has_flooding, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range b.Rows {
		var bluePixels, totalPixels, avgR, avgG, avgB sql.NullInt64
		var blueRatio sql.NullFloat64
		var hasFlooding sql.NullBool
		var errText sql.NullString

		if row.Record.OK() {
			st := row.Record.Stats
			bluePixels = sql.NullInt64{Int64: int64(st.BluePixels), Valid: true}
			totalPixels = sql.NullInt64{Int64: int64(st.TotalPixels), Valid: true}
			blueRatio = sql.NullFloat64{Float64: st.BlueRatio, Valid: true}
			avgR = sql.NullInt64{Int64: int64(st.AvgColor[0]), Valid: true}
			avgG = sql.NullInt64{Int64: int64(st.AvgColor[1]), Valid: true}
			avgB = sql.NullInt64{Int64: int64(st.AvgColor[2]), Valid: true}
			hasFlooding = sql.NullBool{Bool: st.HasFlooding, Valid: true}
		} else {
			errText = sql.NullString{String: row.Record.Err, Valid: true}
		}

		if _, err := stmt.Exec(id, i, row.Filename, row.TestName, row.WaterLevelFt,
			bluePixels, totalPixels, blueRatio, avgR, avgG, avgB, hasFlooding, errText); err != nil {
			return "", fmt.Errorf("insert result %s: %w", row.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LatestRuns returns up to limit runs, newest first
func (s *Store) LatestRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, dir, mode, total, flooded, errors
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Dir, &r.Mode, &r.Total, &r.Flooded, &r.Errors); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Results returns the rows of a run in their original order
func (s *Store) Results(runID string) ([]Result, error) {
	rows, err := s.db.Query(`
		SELECT seq, filename, test_name, water_level_ft, blue_pixels, total_pixels, blue_ratio, avg_r, avg_g, avg_b, has_flooding, error
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var testName, errText sql.NullString
		var bluePixels, totalPixels, avgR, avgG, avgB sql.NullInt64
		var blueRatio sql.NullFloat64
		var hasFlooding sql.NullBool

		if err := rows.Scan(&r.Seq, &r.Filename, &testName, &r.WaterLevelFt, &bluePixels, &totalPixels,
			&blueRatio, &avgR, &avgG, &avgB, &hasFlooding, &errText); err != nil {
			return nil, err
		}
		r.TestName = testName.String

		if errText.Valid {
			r.Record = analyzer.Record{Err: errText.String}
		} else {
			r.Record = analyzer.Record{Stats: &analyzer.ColorStats{
				BluePixels:  int(bluePixels.Int64),
				TotalPixels: int(totalPixels.Int64),
				BlueRatio:   blueRatio.Float64,
				AvgColor:    [3]int{int(avgR.Int64), int(avgG.Int64), int(avgB.Int64)},
				HasFlooding: hasFlooding.Bool,
			}}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
