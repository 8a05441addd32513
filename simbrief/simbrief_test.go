package simbrief

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleOFP = `{
	"general": {"route": "LAXIG Y16 MOLKA Y14 GOBOH"},
	"aircraft": {"icao_code": "b789"},
	"origin": {"icao_code": "rjtt"},
	"destination": {"icao_code": "rjaa"},
	"atc": {"callsign": "JAL001"},
	"navlog": {"fix": []}
}`

func stubClient(srv *httptest.Server) *Client {
	c := NewClient()
	c.BaseURL = srv.URL
	return c
}

func TestFetchPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("json"))
		assert.Equal(t, "testpilot", r.URL.Query().Get("username"))
		_, _ = w.Write([]byte(sampleOFP))
	}))
	defer srv.Close()

	plan, err := stubClient(srv).FetchPlan(context.Background(), " testpilot ")
	assert.NoError(t, err)
	assert.Equal(t, "JAL001", plan.Callsign)
	assert.Equal(t, "B789", plan.AircraftICAO)
	assert.Equal(t, "RJTT", plan.DepartureICAO)
	assert.Equal(t, "RJAA", plan.ArrivalICAO)
	assert.Equal(t, "LAXIG Y16 MOLKA Y14 GOBOH", plan.Route)
}

func TestFetchPlanServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no OFP on file", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := stubClient(srv).FetchPlan(context.Background(), "testpilot")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestFetchPlanBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := stubClient(srv).FetchPlan(context.Background(), "testpilot")
	assert.Error(t, err)
}

func TestFetchPlanEmptyUsername(t *testing.T) {
	_, err := NewClient().FetchPlan(context.Background(), "  ")
	assert.Error(t, err)
}
