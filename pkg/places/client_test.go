package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "100 Main St, Denver, CO 80202", req["textQuery"])

		json.NewEncoder(w).Encode(TextSearchResponse{ //nolint:errcheck
			Places: []Place{{
				DisplayName:      DisplayName{Text: "Shear Genius"},
				FormattedAddress: "100 Main St, Denver, CO 80202, USA",
				NationalPhone:    "(303) 555-0100",
				WebsiteURI:       "https://sheargenius.example",
				Types:            []string{"beauty_salon", "hair_care"},
			}},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.TextSearch(context.Background(), "100 Main St, Denver, CO 80202")
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "Shear Genius", resp.Places[0].DisplayName.Text)
	assert.Equal(t, []string{"beauty_salon", "hair_care"}, resp.Places[0].Types)
}

func TestTextSearch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.TextSearch(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestStub_RecordsQueries(t *testing.T) {
	s := &Stub{Response: TextSearchResponse{Places: []Place{{DisplayName: DisplayName{Text: "X"}}}}}
	resp, err := s.TextSearch(context.Background(), "q1")
	require.NoError(t, err)
	assert.Len(t, resp.Places, 1)
	assert.Equal(t, []string{"q1"}, s.Queries)
}
