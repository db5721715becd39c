package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"amy-extractor/lib/htmlutil"
	"amy-extractor/lib/scrapers/amy"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

var errLoginRedirect = fmt.Errorf("detail page redirected to login")

// the marker text trailing the attendance figure on detail pages of
// workshops that never reported one
const askForAttendance = "Ask for attendance"

// produces a new workshop list with attendance and instructor names
// recovered from each workshop's detail page. workshops whose page
// cannot be fetched or parsed keep their original values, and an
// unauthenticated session leaves the whole list untouched.
func (e *Extractor) EnrichWorkshops(ctx context.Context, workshops []Workshop) []Workshop {
	ctx, span := tracer.Start(ctx, "EnrichWorkshops")
	defer span.End()

	out := make([]Workshop, len(workshops))
	copy(out, workshops)

	if !e.client.Authenticated() {
		slog.WarnContext(ctx, "skipping workshop enrichment, no logged-in session")
		return out
	}

	sem := make(chan struct{}, maxConcurrentFetches)
	wg := sync.WaitGroup{}

	for i := range out {
		wg.Add(1)
		go func(w *Workshop) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			details, err := e.fetchEventDetails(ctx, w.Slug)
			if err == errLoginRedirect {
				// expected when the session is stale, not an error
				slog.InfoContext(ctx, "detail page requires login, keeping base record", "slug", w.Slug)
				return
			}
			if err != nil {
				slog.ErrorContext(
					ctx, "failed to enrich workshop, keeping base record",
					"slug", w.Slug, "err", err,
				)
				return
			}
			*w = w.withDetails(details)
		}(&out[i])
	}

	wg.Wait()
	return out
}

func (e *Extractor) fetchEventDetails(ctx context.Context, slug string) (EventDetails, error) {
	ctx, span := tracer.Start(ctx, "fetchEventDetails")
	defer span.End()

	body, err := e.client.EventPage(ctx, slug)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch detail page")
		return EventDetails{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse detail page html")
		return EventDetails{}, err
	}
	if amy.IsLoginPage(doc) {
		return EventDetails{}, errLoginRedirect
	}

	return parseEventDetails(doc), nil
}

func parseEventDetails(doc *goquery.Document) EventDetails {
	var details EventDetails

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		first := strings.ToLower(htmlutil.CellText(row, 0))

		if strings.Contains(first, "attendance:") {
			details.Attendance = parseAttendance(htmlutil.CellText(row, 1))
			return
		}
		if strings.Contains(first, "instructor") {
			if name := htmlutil.CellText(row, 2); name != "" {
				details.Instructors = append(details.Instructors, name)
			}
		}
	})

	return details
}

func parseAttendance(text string) int {
	if idx := strings.Index(text, askForAttendance); idx >= 0 {
		text = text[:idx]
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}
