package extractor

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"amy-extractor/services/extractor/db"

	_ "modernc.org/sqlite"
)

// opens (creating if needed) the sqlite archive that accumulates one
// snapshot of collected records per run.
func OpenArchive(path string) (*sql.DB, error) {
	if path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0777)
	}

	archive, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	archive.SetMaxOpenConns(1)
	_, err = archive.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	_, err = archive.Exec("PRAGMA busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	_, err = archive.Exec(db.Schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return nil, err
	}
	return archive, nil
}

// stores one run's worth of workshops and instructors under a fresh
// run id so dated snapshots can be compared later.
func ArchiveRun(
	ctx context.Context,
	archive *sql.DB,
	country string,
	workshops []Workshop,
	instructors []Instructor,
) error {
	tx, err := archive.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (started_at, country) VALUES (?, ?)`,
		now().Format(dateLayout), country,
	)
	if err != nil {
		return err
	}
	runId, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, w := range workshops {
		start, end := defaultDates(w.Start, w.End)
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO workshops
			(run_id, slug, start_date, end_date, country, venue, attendance, instructors)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runId, w.Slug, start, end, w.Country, w.Venue,
			w.Attendance, strings.Join(filledSlots(w.Instructors), ", "),
		)
		if err != nil {
			return err
		}
	}

	for _, inst := range instructors {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO instructors
			(run_id, username, personal, family, country, airport_code, num_taught)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runId, inst.Username, inst.Personal, inst.Family,
			inst.CountryCode, inst.AirportCode, inst.NumTaught,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// the instructor slot list without its empty padding
func filledSlots(names []string) []string {
	var out []string
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
