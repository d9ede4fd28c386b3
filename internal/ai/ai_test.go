package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

func newTestDrafter(t *testing.T, h http.HandlerFunc) *Drafter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	d := NewDrafter("sk-test", "")
	d.endpoint = srv.URL
	return d
}

func TestNewDrafterDefaults(t *testing.T) {
	d := NewDrafter("sk-test", "")
	assert.Equal(t, "gpt-4.1-mini", d.model)
	assert.Equal(t, 20*time.Second, d.httpClient.Timeout)
}

func TestDraftEmail(t *testing.T) {
	var got chatRequest
	d := newTestDrafter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Dear Professor Lovelace,\n...  "}}]}`))
	})

	draft, err := d.DraftEmail(context.Background(),
		domain.Record(`{"name":"Ada Lovelace","research_area":"analytical engines"}`),
		domain.StudentInfo{Name: "Lin", ResearchInterest: "compilers"})
	require.NoError(t, err)

	assert.Equal(t, "PhD Application Inquiry - Lin", draft.Subject)
	assert.Equal(t, "Dear Professor Lovelace,\n...", draft.Content)
	assert.Equal(t, "gpt-4.1-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "analytical engines")
	assert.Contains(t, got.Messages[1].Content, "compilers")
}

func TestDraftEmailErrors(t *testing.T) {
	d := newTestDrafter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := d.DraftEmail(context.Background(), domain.Record(`{}`), domain.StudentInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	d = newTestDrafter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err = d.DraftEmail(context.Background(), domain.Record(`{}`), domain.StudentInfo{})
	assert.EqualError(t, err, "no choices in OpenAI response")
}
