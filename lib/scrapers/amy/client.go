package amy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"amy-extractor/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/amy")

var LoginFailed = fmt.Errorf("Failed to login to the workshop registry.")
var NotAuthenticated = fmt.Errorf("this endpoint requires a logged-in session")

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	authenticated bool
}

type ClientOptions struct {
	BaseUrl string
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/amy/http")

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

func (c *Client) Authenticated() bool {
	return c.authenticated
}

// the registry renders its login page (and every login redirect)
// with a title along the lines of "Log in".
func isLoginPage(doc *goquery.Document) bool {
	return strings.Contains(doc.Find("title").Text(), "Log in")
}

// performs the django-style form login handshake: fetch the login
// page for its anti-forgery token, then post it back along with the
// credentials. the session cookie lives in the client's cookie jar
// for the rest of the run.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/account/login/")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login page html")
		return err
	}

	csrftoken := doc.Find("input[name=csrfmiddlewaretoken]").AttrOr("value", "")
	if csrftoken == "" {
		span.SetStatus(codes.Error, "failed to find anti-forgery token")
		return fmt.Errorf("could not find anti-forgery token on login page")
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.JoinPath("/account/login/").String()).
		SetFormData(map[string]string{
			"csrfmiddlewaretoken": csrftoken,
			"username":            username,
			"password":            password,
		}).
		Post("/account/login/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}
	doc, err = goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse post-login html")
		return err
	}

	if isLoginPage(doc) {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return LoginFailed
	}

	c.authenticated = true
	return nil
}

// the full published-workshops feed, a single unpaginated array.
// does not require a session.
func (c *Client) PublishedEvents(ctx context.Context) ([]Event, error) {
	ctx, span := tracer.Start(ctx, "client:PublishedEvents")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/api/v1/events/published/?format=json")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %d from published events feed", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var events []Event
	err = json.Unmarshal(res.Body(), &events)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode")
		return nil, err
	}
	return events, nil
}

func (c *Client) Airports(ctx context.Context) ([]Airport, error) {
	ctx, span := tracer.Start(ctx, "client:Airports")
	defer span.End()

	if !c.authenticated {
		return nil, NotAuthenticated
	}
	return collectPages[Airport](ctx, c, "/api/v1/airports/?format=json")
}

func (c *Client) Persons(ctx context.Context) ([]Person, error) {
	ctx, span := tracer.Start(ctx, "client:Persons")
	defer span.End()

	if !c.authenticated {
		return nil, NotAuthenticated
	}
	return collectPages[Person](ctx, c, "/api/v1/persons/?format=json")
}

// the task list of a single person, where a task ties the person to
// an event under a role such as "instructor" or "helper".
func (c *Client) PersonTasks(ctx context.Context, id int64) ([]Task, error) {
	ctx, span := tracer.Start(ctx, "client:PersonTasks")
	defer span.End()

	if !c.authenticated {
		return nil, NotAuthenticated
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/api/v1/persons/%d/tasks/?format=json", id))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %d from task feed", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var tasks []Task
	err = json.Unmarshal(res.Body(), &tasks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode")
		return nil, err
	}
	return tasks, nil
}

// the html detail page of a single workshop. the markup is only
// complete for a logged-in session, otherwise the registry serves a
// login redirect which callers detect via IsLoginPage.
func (c *Client) EventPage(ctx context.Context, slug string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:EventPage")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/workshops/event/%s/", slug))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %d from detail page", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res.Body(), nil
}

// reports whether a fetched page is the registry's login redirect.
func IsLoginPage(doc *goquery.Document) bool {
	return isLoginPage(doc)
}
