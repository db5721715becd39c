package amy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"amy-extractor/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const testCsrfToken = "tok-5501"

func loginPage(w http.ResponseWriter) {
	fmt.Fprintf(
		w,
		`<html><head><title>Log in</title></head>
		<body><form method="post">
		<input type="hidden" name="csrfmiddlewaretoken" value="%s">
		</form></body></html>`,
		testCsrfToken,
	)
}

// a minimal stand-in for the workshop registry: form login plus the
// paginated json feeds.
func newFakeRegistry(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /account/login/", func(w http.ResponseWriter, r *http.Request) {
		loginPage(w)
	})
	mux.HandleFunc("POST /account/login/", func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		require.NoError(t, err)

		if r.PostFormValue("csrfmiddlewaretoken") != testCsrfToken ||
			r.PostFormValue("username") != "admin" ||
			r.PostFormValue("password") != "hunter2" {
			loginPage(w)
			return
		}
		fmt.Fprint(w, `<html><head><title>Dashboard</title></head><body></body></html>`)
	})

	mux.HandleFunc("GET /api/v1/persons/", func(w http.ResponseWriter, r *http.Request) {
		var body page[Person]
		switch r.URL.Query().Get("page") {
		case "", "1":
			next := fmt.Sprintf("http://%s/api/v1/persons/?format=json&page=2", r.Host)
			body = page[Person]{
				Next: &next,
				Results: []Person{
					{Id: 1, Username: "ada"},
					{Id: 2, Username: "grace"},
				},
			}
		case "2":
			body = page[Person]{
				Results: []Person{{Id: 3, Username: "linus"}},
			}
		}
		json.NewEncoder(w).Encode(body)
	})

	// a feed with a broken terminator: next always points back at
	// the same url
	mux.HandleFunc("GET /api/v1/airports/", func(w http.ResponseWriter, r *http.Request) {
		next := fmt.Sprintf("http://%s/api/v1/airports/?format=json", r.Host)
		json.NewEncoder(w).Encode(page[Airport]{
			Next:    &next,
			Results: []Airport{{Iata: "MAN", Fullname: "Manchester", Country: "GB"}},
		})
	})

	mux.HandleFunc("GET /api/v1/persons/2/tasks/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Task{
			{Role: "instructor", Event: "https://example.org/api/v1/events/2020-05-01-abc/"},
			{Role: "helper", Event: "https://example.org/api/v1/events/2020-06-01-def/"},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t testing.TB, baseUrl string) *Client {
	client, err := NewClient(context.Background(), ClientOptions{BaseUrl: baseUrl})
	require.NoError(t, err)
	return client
}

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/amy")
	defer cleanup()

	server := newFakeRegistry(t)
	ctx := context.Background()

	client := newTestClient(t, server.URL)
	require.False(t, client.Authenticated())

	err := client.Login(ctx, "admin", "wrong-password")
	require.ErrorIs(t, err, LoginFailed)
	require.False(t, client.Authenticated())

	err = client.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)
	require.True(t, client.Authenticated())
}

func TestAuthenticatedFeedsRequireLogin(t *testing.T) {
	server := newFakeRegistry(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.Persons(ctx)
	require.ErrorIs(t, err, NotAuthenticated)
	_, err = client.Airports(ctx)
	require.ErrorIs(t, err, NotAuthenticated)
	_, err = client.PersonTasks(ctx, 2)
	require.ErrorIs(t, err, NotAuthenticated)
}

func TestPersonsPagination(t *testing.T) {
	server := newFakeRegistry(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	err := client.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)

	persons, err := client.Persons(ctx)
	require.NoError(t, err)

	var usernames []string
	for _, p := range persons {
		usernames = append(usernames, p.Username)
	}
	require.Equal(t, []string{"ada", "grace", "linus"}, usernames)
}

func TestPaginationTerminatesOnSelfReferentialNext(t *testing.T) {
	server := newFakeRegistry(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	err := client.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)

	airports, err := client.Airports(ctx)
	require.NoError(t, err)
	require.Len(t, airports, 1)
	require.Equal(t, "MAN", airports[0].Iata)
}

func TestPersonTasks(t *testing.T) {
	server := newFakeRegistry(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	err := client.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)

	tasks, err := client.PersonTasks(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []Task{
		{Role: "instructor", Event: "https://example.org/api/v1/events/2020-05-01-abc/"},
		{Role: "helper", Event: "https://example.org/api/v1/events/2020-06-01-def/"},
	}, tasks)
}
