package extractor

import (
	"regexp"
	"strings"

	"amy-extractor/lib/scrapers/amy"
)

// every serialized workshop carries exactly this many instructor-name
// slots, padded with empty strings or truncated as needed
const InstructorSlots = 10

// the sentinel country filter meaning "no filter"
const CountryAll = "all"

// badge names that mark a person as an instructor
var instructorBadges = []string{"swc-instructor", "dc-instructor", "trainer"}

type Workshop struct {
	Slug         string
	HumanDate    string
	Start        string
	End          string
	Tags         []string
	Venue        string
	Address      string
	Latitude     *float64
	Longitude    *float64
	EventbriteId string
	Contact      string
	Url          string
	Country      string
	Attendance   int
	// always InstructorSlots long
	Instructors []string
}

// the fields only recoverable from a workshop's authenticated detail
// page, merged over the base record once enrichment succeeds
type EventDetails struct {
	Attendance  int
	Instructors []string
}

// a fresh workshop value with the detail-page fields applied, the
// base record is left untouched so a failed enrichment never leaves
// half-written state behind
func (w Workshop) withDetails(d EventDetails) Workshop {
	w.Attendance = d.Attendance
	w.Instructors = padInstructors(d.Instructors)
	return w
}

func padInstructors(names []string) []string {
	slots := make([]string, InstructorSlots)
	copy(slots, names)
	return slots
}

func workshopFromEvent(ev amy.Event) Workshop {
	tags := make([]string, len(ev.Tags))
	for i, t := range ev.Tags {
		tags[i] = t.Name
	}
	return Workshop{
		Slug:         ev.Slug,
		HumanDate:    ev.HumanDate,
		Start:        ev.Start,
		End:          ev.End,
		Tags:         tags,
		Venue:        ev.Venue,
		Address:      ev.Address,
		Latitude:     ev.Latitude,
		Longitude:    ev.Longitude,
		EventbriteId: ev.EventbriteId.String(),
		Contact:      ev.Contact,
		Url:          ev.Url,
		Country:      ev.Country,
		Instructors:  padInstructors(nil),
	}
}

type Instructor struct {
	PersonId    int64
	Personal    string
	Family      string
	Email       string
	Username    string
	CountryCode string
	AirportName string
	AirportCode string
	Affiliation string
	Domains     []string
	Badges      []string
	Lessons     []string
	Taught      []string
	NumTaught   int
}

type Airport struct {
	Iata     string
	Fullname string
	Country  string
}

func instructorFromPerson(p amy.Person) Instructor {
	return Instructor{
		PersonId:    p.Id,
		Personal:    p.Personal,
		Family:      p.Family,
		Email:       p.Email,
		Username:    p.Username,
		Affiliation: p.Affiliation,
		Domains:     p.Domains,
		Badges:      p.Badges,
		Lessons:     p.Lessons,
	}
}

func hasInstructorBadge(badges []string) bool {
	for _, b := range badges {
		for _, want := range instructorBadges {
			if b == want {
				return true
			}
		}
	}
	return false
}

// "" and the CountryAll sentinel disable filtering entirely,
// otherwise the match is exact and case-sensitive
func matchesCountry(country, filter string) bool {
	if filter == "" || filter == CountryAll {
		return true
	}
	return country == filter
}

func lastPathSegment(uri string) string {
	trimmed := strings.TrimRight(uri, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return ""
	}
	return trimmed[idx+1:]
}

var iataSegment = regexp.MustCompile(`^[A-Za-z]{3}$`)

// the iata code encoded in an airport reference uri such as
// .../api/v1/airports/MAN/. a uri whose final segment is not a
// 3-letter code resolves to "" rather than a garbage code.
func airportCode(uri string) string {
	seg := lastPathSegment(uri)
	if !iataSegment.MatchString(seg) {
		return ""
	}
	return strings.ToUpper(seg)
}
