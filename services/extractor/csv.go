package extractor

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// swapped out in tests to pin the run date
var now = time.Now

var workshopColumns = []string{
	"slug", "humandate", "start", "end", "tags", "venue", "address",
	"latitude", "longitude", "eventbrite_id", "contact", "url",
	"number_of_attendees",
	"instructor_1", "instructor_2", "instructor_3", "instructor_4",
	"instructor_5", "instructor_6", "instructor_7", "instructor_8",
	"instructor_9", "instructor_10",
}

var instructorColumns = []string{
	"name", "surname", "email", "amy_username", "country_code",
	"nearest_airport_name", "nearest_airport_code", "affiliation",
	"domains", "badges", "lessons",
	"number_of_workshops_taught", "workshops_taught",
}

// a workshop with no start date is assumed to start today, one with
// no end date to last a single day
func defaultDates(start, end string) (string, string) {
	today := now().Format(dateLayout)

	if end == "" {
		base := start
		if base == "" {
			base = today
		}
		t, err := time.Parse(dateLayout, base)
		if err != nil {
			slog.Warn("workshop start date is not ISO formatted", "start", base)
			t, _ = time.Parse(dateLayout, today)
		}
		end = t.AddDate(0, 0, 1).Format(dateLayout)
	}
	if start == "" {
		start = today
	}
	return start, end
}

func formatCoord(c *float64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatFloat(*c, 'f', -1, 64)
}

func writeCsv(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	err = w.Write(header)
	if err != nil {
		return err
	}
	err = w.WriteAll(rows)
	if err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// serializes workshops into the fixed 23-column report. the header
// row is written even for zero records. failures are logged and
// reported to the caller, they are the one run-level failure mode.
func WriteWorkshopsCSV(workshops []Workshop, path string) error {
	rows := make([][]string, 0, len(workshops))
	for _, w := range workshops {
		start, end := defaultDates(w.Start, w.End)
		row := []string{
			w.Slug,
			w.HumanDate,
			start,
			end,
			strings.Join(w.Tags, ", "),
			w.Venue,
			w.Address,
			formatCoord(w.Latitude),
			formatCoord(w.Longitude),
			w.EventbriteId,
			w.Contact,
			w.Url,
			strconv.Itoa(w.Attendance),
		}
		row = append(row, padInstructors(w.Instructors)...)
		rows = append(rows, row)
	}

	err := writeCsv(path, workshopColumns, rows)
	if err != nil {
		slog.Error(
			"failed to write workshops csv",
			"path", path, "records", len(workshops), "err", err,
		)
		return err
	}

	slog.Info("wrote workshops csv", "path", path, "records", len(workshops))
	return nil
}

// serializes instructors into the fixed 13-column report, same
// failure contract as WriteWorkshopsCSV.
func WriteInstructorsCSV(instructors []Instructor, path string) error {
	rows := make([][]string, 0, len(instructors))
	for _, inst := range instructors {
		rows = append(rows, []string{
			inst.Personal,
			inst.Family,
			inst.Email,
			inst.Username,
			inst.CountryCode,
			inst.AirportName,
			inst.AirportCode,
			inst.Affiliation,
			strings.Join(inst.Domains, ", "),
			strings.Join(inst.Badges, ", "),
			strings.Join(inst.Lessons, ", "),
			strconv.Itoa(inst.NumTaught),
			strings.Join(inst.Taught, ", "),
		})
	}

	err := writeCsv(path, instructorColumns, rows)
	if err != nil {
		slog.Error(
			"failed to write instructors csv",
			"path", path, "records", len(instructors), "err", err,
		)
		return err
	}

	slog.Info("wrote instructors csv", "path", path, "records", len(instructors))
	return nil
}
