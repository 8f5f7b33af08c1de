package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAutocomplete(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/autocomplete", r.URL.Path)
		require.Equal(t, "corner cafe", r.URL.Query().Get("text"))
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"businesses":[{"id":"abc123","name":"The Corner Cafe"},{"id":"def456","name":"Corner Cafe Express"}]}`))
	}))
	defer srv.Close()

	c := NewYelpClient("test-key")
	c.BaseURL = srv.URL

	got, err := c.Autocomplete(context.Background(), "corner cafe")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "abc123", got[0].ID)
	require.Equal(t, "The Corner Cafe", got[0].Name)
}

func TestAutocompleteErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewYelpClient("test-key")
	c.BaseURL = srv.URL

	_, err := c.Autocomplete(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestAutocompleteDisabledWithoutKey(t *testing.T) {
	t.Parallel()
	c := NewYelpClient("")
	require.False(t, c.Enabled())

	got, err := c.Autocomplete(context.Background(), "anything")
	require.NoError(t, err)
	require.Nil(t, got)
}
