package simbrief

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/skytrack/feeder"
)

const defaultBaseURL = "https://www.simbrief.com/api/xml.fetcher.php"

// Client fetches the latest filed OFP for a SimBrief pilot. SimBrief's
// fetcher endpoint returns the whole briefing; only the identity and
// route fields are decoded.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type ofpResponse struct {
	General struct {
		Route string `json:"route"`
	} `json:"general"`
	Aircraft struct {
		ICAOCode string `json:"icao_code"`
	} `json:"aircraft"`
	Origin struct {
		ICAOCode string `json:"icao_code"`
	} `json:"origin"`
	Destination struct {
		ICAOCode string `json:"icao_code"`
	} `json:"destination"`
	ATC struct {
		Callsign string `json:"callsign"`
	} `json:"atc"`
}

// FetchPlan retrieves the most recent OFP filed under username and maps
// it to a flight plan.
func (c *Client) FetchPlan(ctx context.Context, username string) (*feeder.FlightPlan, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("simbrief username is required")
	}

	u := fmt.Sprintf("%s?json=1&username=%s", c.BaseURL, url.QueryEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build simbrief request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch simbrief plan for %q", username)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("simbrief returned HTTP %d for %q", resp.StatusCode, username)
	}

	ofp := ofpResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&ofp); err != nil {
		return nil, errors.Wrap(err, "unable to decode simbrief response")
	}

	return &feeder.FlightPlan{
		Callsign:      strings.TrimSpace(ofp.ATC.Callsign),
		AircraftICAO:  normICAO(ofp.Aircraft.ICAOCode),
		DepartureICAO: normICAO(ofp.Origin.ICAOCode),
		ArrivalICAO:   normICAO(ofp.Destination.ICAOCode),
		Route:         strings.TrimSpace(ofp.General.Route),
	}, nil
}

func normICAO(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
