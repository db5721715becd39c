package extractor

import (
	"context"
	"testing"

	"amy-extractor/lib/testutil"
	"amy-extractor/services/extractor/db"

	"github.com/stretchr/testify/require"
)

func TestArchiveRun(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/extractor/archive",
		DbSchema: db.Schema,
	})
	defer cleanup()

	ctx := context.Background()

	workshops := []Workshop{
		{Slug: "2023-01-01-test", Start: "2023-01-01", End: "2023-01-02", Country: "GB", Attendance: 25, Instructors: padInstructors([]string{"Ada Lovelace"})},
	}
	instructors := []Instructor{
		{Username: "ada", Personal: "Ada", Family: "Lovelace", CountryCode: "GB", AirportCode: "MAN", NumTaught: 1},
	}

	err := ArchiveRun(ctx, res.DB, "GB", workshops, instructors)
	require.NoError(t, err)
	err = ArchiveRun(ctx, res.DB, "GB", workshops, instructors)
	require.NoError(t, err)

	var runs int
	err = res.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&runs)
	require.NoError(t, err)
	require.Equal(t, 2, runs)

	var names string
	err = res.DB.QueryRowContext(
		ctx,
		`SELECT instructors FROM workshops WHERE run_id = 1 AND slug = ?`,
		"2023-01-01-test",
	).Scan(&names)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", names)

	var taught int
	err = res.DB.QueryRowContext(
		ctx,
		`SELECT num_taught FROM instructors WHERE run_id = 2 AND username = ?`,
		"ada",
	).Scan(&taught)
	require.NoError(t, err)
	require.Equal(t, 1, taught)
}
