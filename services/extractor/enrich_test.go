package extractor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func detailPage(attendance string, instructors []string) string {
	var rows strings.Builder
	rows.WriteString(fmt.Sprintf(
		`<tr><td>attendance:</td><td>%s</td></tr>`,
		attendance,
	))
	for i, name := range instructors {
		rows.WriteString(fmt.Sprintf(
			`<tr><td>instructor %d:</td><td>badge</td><td>%s</td></tr>`,
			i+1, name,
		))
	}
	return fmt.Sprintf(
		`<html><head><title>Workshop details</title></head>
		<body><table>%s</table></body></html>`,
		rows.String(),
	)
}

func names(n int) []string {
	var out []string
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("Instructor %d", i+1))
	}
	return out
}

func TestEnrichWorkshops(t *testing.T) {
	reg := &fakeRegistry{
		eventPages: map[string]string{
			"2023-01-01-three":   detailPage("   25   Ask for attendance", names(3)),
			"2023-02-01-fifteen": detailPage("80", names(15)),
			"2023-03-01-bare":    `<html><head><title>Workshop details</title></head><body></body></html>`,
			"2023-04-01-stale":   `<html><head><title>Log in</title></head><body></body></html>`,
		},
	}
	ext := setup(t, reg, true)

	base := []Workshop{
		{Slug: "2023-01-01-three", Instructors: padInstructors(nil)},
		{Slug: "2023-02-01-fifteen", Instructors: padInstructors(nil)},
		{Slug: "2023-03-01-bare", Instructors: padInstructors(nil)},
		{Slug: "2023-04-01-stale", Attendance: 7, Instructors: padInstructors([]string{"Kept Name"})},
		{Slug: "2023-05-01-missing", Attendance: 3, Instructors: padInstructors(nil)},
	}

	enriched := ext.EnrichWorkshops(context.Background(), base)
	require.Len(t, enriched, len(base))

	three := enriched[0]
	require.Equal(t, 25, three.Attendance)
	require.Len(t, three.Instructors, InstructorSlots)
	require.Equal(t, "Instructor 1", three.Instructors[0])
	require.Equal(t, "Instructor 3", three.Instructors[2])
	require.Equal(t, "", three.Instructors[3])

	fifteen := enriched[1]
	require.Equal(t, 80, fifteen.Attendance)
	require.Len(t, fifteen.Instructors, InstructorSlots)
	require.Equal(t, "Instructor 10", fifteen.Instructors[9])

	// page without the rows falls back to zero values
	bare := enriched[2]
	require.Equal(t, 0, bare.Attendance)
	require.Equal(t, padInstructors(nil), bare.Instructors)

	// login redirect and fetch failure both keep the base record
	require.Equal(t, base[3], enriched[3])
	require.Equal(t, base[4], enriched[4])

	// and the base list itself is never mutated
	require.Equal(t, 0, base[0].Attendance)
}

func TestEnrichWorkshopsUnauthenticated(t *testing.T) {
	reg := &fakeRegistry{
		eventPages: map[string]string{
			"2023-01-01-three": detailPage("25", names(3)),
		},
	}
	ext := setup(t, reg, false)

	base := []Workshop{{Slug: "2023-01-01-three", Instructors: padInstructors(nil)}}
	enriched := ext.EnrichWorkshops(context.Background(), base)
	require.Equal(t, base, enriched)
}

func TestParseAttendance(t *testing.T) {
	testCases := []struct {
		text     string
		expected int
	}{
		{text: "   25   Ask for attendance", expected: 25},
		{text: "25", expected: 25},
		{text: "Ask for attendance", expected: 0},
		{text: "", expected: 0},
		{text: "many", expected: 0},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, parseAttendance(test.text), "text %q", test.text)
	}
}
