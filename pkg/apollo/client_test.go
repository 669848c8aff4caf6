package apollo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/tracker"
)

func newTestCaller(tr *tracker.Tracker) *resilience.Caller {
	return resilience.NewCaller(tr, resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}, resilience.WithWarnWriter(io.Discard))
}

func TestPeopleSearch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mixed_people/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var req PeopleSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"acme.example"}, req.OrganizationDomains)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"people": [
				{"first_name": "Jane", "last_name": "Doe", "title": "CEO",
				 "email": "jane@acme.example", "email_status": "verified",
				 "linkedin_url": "https://www.linkedin.com/in/janedoe"}
			]
		}`))
	}))
	defer srv.Close()

	tr := tracker.New()
	client := NewClient("test-key", newTestCaller(tr), WithBaseURL(srv.URL))
	got, err := client.PeopleSearch(context.Background(), PeopleSearchRequest{
		OrganizationDomains: []string{"acme.example"},
		PerPage:             5,
	})

	require.NoError(t, err)
	require.Len(t, got.People, 1)
	assert.Equal(t, "jane@acme.example", got.People[0].Email)
	assert.True(t, got.People[0].Usable())

	assert.Equal(t, 1, tr.Counters()[Label].Success)
}

func TestPeopleSearch_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	tr := tracker.New()
	client := NewClient("bad-key", newTestCaller(tr), WithBaseURL(srv.URL))
	_, err := client.PeopleSearch(context.Background(), PeopleSearchRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 1, tr.Counters()[Label].ClientErrors)
}

func TestPersonUsable(t *testing.T) {
	t.Parallel()

	assert.False(t, Person{}.Usable())
	assert.False(t, Person{Email: "email_not_unlocked@domain.com"}.Usable())
	assert.True(t, Person{Email: "jane@acme.example"}.Usable())
}
