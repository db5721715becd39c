package amy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
)

type page[T any] struct {
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// accumulates every page of a cursor-paginated feed by following the
// `next` link until it is null. a `next` pointing back at an already
// visited url terminates the walk instead of looping forever.
func collectPages[T any](ctx context.Context, c *Client, first string) ([]T, error) {
	var out []T

	visited := map[string]bool{}
	next := first

	for {
		key := next
		if ref, err := url.Parse(next); err == nil {
			// `next` links come back absolute while the first page is
			// requested relative to the base url, resolve both to the
			// same form before cycle checking
			key = c.BaseUrl.ResolveReference(ref).String()
		}
		if visited[key] {
			slog.WarnContext(ctx, "pagination cursor loops back on itself, stopping", "url", next)
			return out, nil
		}
		visited[key] = true

		res, err := c.Http.R().
			SetContext(ctx).
			Get(next)
		if err != nil {
			return out, err
		}
		if res.IsError() {
			return out, fmt.Errorf("unexpected status %d from paginated feed", res.StatusCode())
		}

		var p page[T]
		err = json.Unmarshal(res.Body(), &p)
		if err != nil {
			return out, err
		}
		out = append(out, p.Results...)

		if p.Next == nil || *p.Next == "" {
			return out, nil
		}
		next = *p.Next
	}
}
