package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type professorQuery struct {
	Name   string `url:"name"`
	School string `url:"school,omitempty"`
}

func TestNewDefaults(t *testing.T) {
	c := New("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c = New("http://backend:9000/")
	assert.Equal(t, "http://backend:9000", c.BaseURL())
}

func TestURL(t *testing.T) {
	c := New("http://backend")

	got, err := c.URL("/schools", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://backend/schools", got)

	got, err = c.URL("search/professor", professorQuery{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "http://backend/search/professor?name=Ada", got)

	got, err = c.URL("/search/professor", professorQuery{Name: "Ada", School: "MIT"})
	require.NoError(t, err)
	assert.Equal(t, "http://backend/search/professor?name=Ada&school=MIT", got)

	got, err = c.URL("/search/school", url.Values{"school_name": {"Sci & Tech"}})
	require.NoError(t, err)
	assert.Equal(t, "http://backend/search/school?school_name=Sci+%26+Tech", got)
}

func TestGetDecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/schools", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 1}})
	}))
	defer server.Close()

	var observed []int
	c := New(server.URL, WithObserver(func(method, path string, status int, _ time.Duration, err error) {
		assert.Equal(t, http.MethodGet, method)
		assert.Equal(t, "/schools", path)
		assert.NoError(t, err)
		observed = append(observed, status)
	}))

	var out []json.RawMessage
	require.NoError(t, c.Get(context.Background(), "/schools", nil, &out))
	require.Len(t, out, 1)
	assert.JSONEq(t, `{"id":1}`, string(out[0]))
	assert.Equal(t, []int{http.StatusOK}, observed)
}

func TestPostSendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "7", r.URL.Query().Get("days_threshold"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["subject"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":3}`))
	}))
	defer server.Close()

	var out map[string]int
	err := New(server.URL).Post(context.Background(), "/emails/",
		url.Values{"days_threshold": {"7"}}, map[string]string{"subject": "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out["id"])
}

func TestDeleteSendsNoBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/schools/4", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"message":"School deleted successfully"}`))
	}))
	defer server.Close()

	var out map[string]string
	require.NoError(t, New(server.URL).Delete(context.Background(), "/schools/4", &out))
	assert.Equal(t, "School deleted successfully", out["message"])
}

func TestFailuresAreFetchFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.Error(w, `{"detail":"School not found"}`, http.StatusNotFound)
		case "/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/garbage":
			_, _ = w.Write([]byte("not json"))
		}
	}))

	c := New(server.URL)
	var out any

	err := c.Get(context.Background(), "/missing", nil, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "School not found")

	err = c.Get(context.Background(), "/broken", nil, &out)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Contains(t, err.Error(), "HTTP 500")

	err = c.Get(context.Background(), "/garbage", nil, &out)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Contains(t, err.Error(), "decode response")

	server.Close()
	err = c.Get(context.Background(), "/missing", nil, &out)
	assert.True(t, errors.Is(err, ErrFetchFailed))
}

func TestContextCancelStopsRequest(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := New(server.URL).Get(ctx, "/slow", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
}
