package bridge

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   []byte
}

func recordingServer(t *testing.T, status int) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func TestHTTPSender_PostsKeyPayload(t *testing.T) {
	srv, reqs := recordingServer(t, http.StatusOK)

	var results []Result
	var mu sync.Mutex
	s := NewHTTPSender(srv.URL+"/", OnResult(func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))

	s.Send("keydown", KeyPayload{KeyCode: 65, HasShift: 1, HasAlt: 1})
	s.Wait()

	got := reqs()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "/keydown", got[0].path)

	var payload KeyPayload
	require.NoError(t, json.Unmarshal(got[0].body, &payload))
	assert.Equal(t, KeyPayload{KeyCode: 65, HasShift: 1, HasCtrl: 0, HasAlt: 1}, payload)

	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
	assert.Equal(t, http.StatusOK, results[0].Status)
}

func TestHTTPSender_EmptyBody(t *testing.T) {
	srv, reqs := recordingServer(t, http.StatusOK)
	s := NewHTTPSender(srv.URL)

	s.Send(PathUpdateVector, nil)
	s.Send(PathUpdateVector, nil)
	s.Wait()

	got := reqs()
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "/updateVector", r.path)
		assert.Empty(t, r.body)
	}
}

func TestHTTPSender_ReportsServerErrors(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusInternalServerError)

	results := make(chan Result, 1)
	s := NewHTTPSender(srv.URL, OnResult(func(r Result) { results <- r }))
	s.Send(PathUpdateVector, nil)
	s.Wait()

	res := <-results
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Contains(t, res.Err.Error(), "unexpected status 500")
}

func TestHTTPSender_UnfollowedRedirectIsNotOK(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusNotModified)

	results := make(chan Result, 1)
	s := NewHTTPSender(srv.URL, OnResult(func(r Result) { results <- r }))
	s.Send(PathUpdateVector, nil)
	s.Wait()

	res := <-results
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusNotModified, res.Status)
}

func TestHTTPSender_ReportsTransportErrors(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	results := make(chan Result, 1)
	s := NewHTTPSender(url, OnResult(func(r Result) { results <- r }))
	s.Send("keyup", KeyPayload{KeyCode: 1})
	s.Wait()

	res := <-results
	assert.Error(t, res.Err)
	assert.Zero(t, res.Status)
}
