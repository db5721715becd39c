package extractor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"amy-extractor/lib/scrapers/amy"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/extractor")

// how many detail/task fetches may be in flight at once, the
// registry rate-limits aggressive clients
const maxConcurrentFetches = 8

type Extractor struct {
	client *amy.Client
}

func New(client *amy.Client) *Extractor {
	return &Extractor{client: client}
}

// fetches the published-workshops feed and keeps the records whose
// country matches the filter. a fetch or decode failure is logged
// and yields an empty set, never an aborted run.
func (e *Extractor) CollectWorkshops(ctx context.Context, country string) []Workshop {
	ctx, span := tracer.Start(ctx, "CollectWorkshops")
	defer span.End()
	span.SetAttributes(attribute.String("country", country))

	events, err := e.client.PublishedEvents(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch published workshops")
		slog.ErrorContext(ctx, "failed to fetch published workshops", "err", err)
		return nil
	}

	var out []Workshop
	for _, ev := range events {
		if ev.Slug == "" {
			slog.WarnContext(ctx, "skipping workshop record with no slug", "url", ev.Url)
			continue
		}
		if !matchesCountry(ev.Country, country) {
			continue
		}
		out = append(out, workshopFromEvent(ev))
	}

	slog.InfoContext(ctx, "collected workshops", "count", len(out), "country", country)
	return out
}

// fetches every airport page and keeps the records whose country
// matches the filter. requires a logged-in session, without one the
// result is nil.
//
// a successful fetch always yields a non-nil slice, even when no
// airport matched: downstream, nil means "no geo filter" while an
// empty set means "filter against nothing, exclude every coded
// person abroad".
func (e *Extractor) CollectAirports(ctx context.Context, country string) []Airport {
	ctx, span := tracer.Start(ctx, "CollectAirports")
	defer span.End()

	airports, err := e.client.Airports(ctx)
	if errors.Is(err, amy.NotAuthenticated) {
		slog.WarnContext(ctx, "skipping airports, no logged-in session")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch airports")
		slog.ErrorContext(ctx, "failed to fetch airports", "err", err)
		return nil
	}

	out := []Airport{}
	for _, a := range airports {
		if a.Iata == "" {
			slog.WarnContext(ctx, "skipping airport record with no iata code", "fullname", a.Fullname)
			continue
		}
		if !matchesCountry(a.Country, country) {
			continue
		}
		out = append(out, Airport{
			Iata:     a.Iata,
			Fullname: a.Fullname,
			Country:  a.Country,
		})
	}

	slog.InfoContext(ctx, "collected airports", "count", len(out), "country", country)
	return out
}

// fetches every person page, keeps those holding an instructor
// badge, geo-filters against the supplied airports (nil disables the
// geo filter) and enriches each with their taught-workshop history.
// requires a logged-in session, without one the result is empty.
//
// a person whose airport uri cannot be resolved to a code is kept
// unconditionally: an uncategorizable person is better reported than
// silently dropped.
func (e *Extractor) CollectInstructors(ctx context.Context, airports []Airport) []Instructor {
	ctx, span := tracer.Start(ctx, "CollectInstructors")
	defer span.End()

	persons, err := e.client.Persons(ctx)
	if errors.Is(err, amy.NotAuthenticated) {
		slog.WarnContext(ctx, "skipping instructors, no logged-in session")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch persons")
		slog.ErrorContext(ctx, "failed to fetch persons", "err", err)
		return nil
	}

	byIata := map[string]Airport{}
	for _, a := range airports {
		byIata[a.Iata] = a
	}

	var out []Instructor
	for _, p := range persons {
		if p.Id == 0 {
			slog.WarnContext(ctx, "skipping person record with no id", "username", p.Username)
			continue
		}
		if !hasInstructorBadge(p.Badges) {
			continue
		}

		inst := instructorFromPerson(p)
		inst.AirportCode = airportCode(p.Airport)

		if airports != nil && inst.AirportCode != "" {
			airport, ok := byIata[inst.AirportCode]
			if !ok {
				continue
			}
			inst.AirportName = airport.Fullname
			inst.CountryCode = airport.Country
		}

		out = append(out, inst)
	}

	e.enrichInstructors(ctx, out)

	slog.InfoContext(ctx, "collected instructors", "count", len(out))
	return out
}

// fills in each instructor's taught-workshop history from their task
// list. one person's failed fetch only costs that person's history,
// the rest of the batch is unaffected and ordering is stable.
func (e *Extractor) enrichInstructors(ctx context.Context, instructors []Instructor) {
	ctx, span := tracer.Start(ctx, "enrichInstructors")
	defer span.End()

	sem := make(chan struct{}, maxConcurrentFetches)
	wg := sync.WaitGroup{}

	for i := range instructors {
		wg.Add(1)
		go func(inst *Instructor) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tasks, err := e.client.PersonTasks(ctx, inst.PersonId)
			if err != nil {
				slog.ErrorContext(
					ctx, "failed to fetch task list, keeping partial record",
					"username", inst.Username, "err", err,
				)
				return
			}

			for _, t := range tasks {
				if t.Role != "instructor" {
					continue
				}
				slug := lastPathSegment(t.Event)
				if slug == "" {
					slog.WarnContext(ctx, "task references a malformed event uri", "uri", t.Event)
					continue
				}
				inst.Taught = append(inst.Taught, slug)
			}
			inst.NumTaught = len(inst.Taught)
		}(&instructors[i])
	}

	wg.Wait()
}
