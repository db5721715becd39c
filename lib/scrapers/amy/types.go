package amy

import "encoding/json"

// a published workshop record from the events feed. slug is the only
// mandatory field, everything else may be empty or null upstream.
type Event struct {
	Slug         string      `json:"slug"`
	HumanDate    string      `json:"humandate"`
	Start        string      `json:"start"`
	End          string      `json:"end"`
	Tags         []Tag       `json:"tags"`
	Venue        string      `json:"venue"`
	Address      string      `json:"address"`
	Latitude     *float64    `json:"latitude"`
	Longitude    *float64    `json:"longitude"`
	EventbriteId json.Number `json:"eventbrite_id"`
	Contact      string      `json:"contact"`
	Url          string      `json:"url"`
	Country      string      `json:"country"`
}

type Tag struct {
	Name string `json:"name"`
}

type Person struct {
	Id          int64    `json:"id"`
	Personal    string   `json:"personal"`
	Family      string   `json:"family"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Badges      []string `json:"badges"`
	Affiliation string   `json:"affiliation"`
	Domains     []string `json:"domains"`
	Lessons     []string `json:"lessons"`
	// a reference uri of the shape .../api/v1/airports/<iata>/,
	// empty when the person never set a home airport
	Airport string `json:"airport"`
}

type Airport struct {
	Iata     string   `json:"iata"`
	Fullname string   `json:"fullname"`
	Country  string   `json:"country"`
	Latitude *float64 `json:"latitude"`
}

type Task struct {
	Role string `json:"role"`
	// a reference uri of the shape .../api/v1/events/<slug>/
	Event string `json:"event"`
}
