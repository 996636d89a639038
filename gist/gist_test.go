package gist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/date"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testToken = "ghp_testtoken123"
	testID    = "0123456789abcdef0123456789abcdef"
)

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

// fakeGitHub serves the gist API with a handler per route and counts hits.
type fakeGitHub struct {
	*httptest.Server
	router *mux.Router
	hits   atomic.Int32
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{router: mux.NewRouter()}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.router.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGitHub) client(opts ...Option) *Client {
	opts = append([]Option{
		WithBaseURL(f.URL),
		WithBackoff(time.Millisecond),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
		WithClock(func() time.Time { return t0 }),
	}, opts...)
	return NewClient(journey.Credential{Token: testToken, RemoteID: testID}, opts...)
}

func gistPayload(t *testing.T, files map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{"id": testID, "files": files})
	require.NoError(t, err)
	return b
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, code)
	}
}

func TestFetch(t *testing.T) {
	f := newFakeGitHub(t)
	content := `{"version":"1.1","exchangeRate":7.2,"entries":[{"id":1,"date":"2024-01-01","profit":10,"loss":0,"pnl":10}],"accountEntries":[]}`
	f.router.HandleFunc("/gists/"+testID, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token "+testToken, r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		w.Write(gistPayload(t, map[string]any{DefaultFileName: map[string]any{"content": content}}))
	}).Methods(http.MethodGet)

	doc, err := f.client().Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, int64(1), doc.Entries[0].ID)
	assert.Equal(t, "7.2", doc.ExchangeRate.String())
}

func TestFetch_MissingFile(t *testing.T) {
	f := newFakeGitHub(t)
	f.router.HandleFunc("/gists/"+testID, func(w http.ResponseWriter, r *http.Request) {
		w.Write(gistPayload(t, map[string]any{"other.txt": map[string]any{"content": "hello"}}))
	})

	doc, err := f.client().Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Entries)
	assert.Empty(t, doc.AccountEntries)
}

func TestFetch_Truncated(t *testing.T) {
	f := newFakeGitHub(t)
	f.router.HandleFunc("/gists/"+testID, func(w http.ResponseWriter, r *http.Request) {
		w.Write(gistPayload(t, map[string]any{DefaultFileName: map[string]any{
			"content":   `{"entr`,
			"truncated": true,
			"raw_url":   f.URL + "/raw/" + DefaultFileName,
		}}))
	})
	f.router.HandleFunc("/raw/"+DefaultFileName, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"entries":[{"id":7,"date":"2024-01-07"}]}`)
	})

	doc, err := f.client().Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, int64(7), doc.Entries[0].ID)
}

func TestFetch_Malformed(t *testing.T) {
	testCases := []struct {
		name    string
		payload func(t *testing.T) []byte
	}{
		{"html page", func(t *testing.T) []byte { return []byte("<html>bad gateway page</html>") }},
		{"document is not json", func(t *testing.T) []byte {
			return gistPayload(t, map[string]any{DefaultFileName: map[string]any{"content": "<html>"}})
		}},
		{"file without content", func(t *testing.T) []byte {
			return gistPayload(t, map[string]any{DefaultFileName: map[string]any{"size": 12}})
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeGitHub(t)
			f.router.HandleFunc("/gists/"+testID, func(w http.ResponseWriter, r *http.Request) {
				w.Write(tc.payload(t))
			})

			_, err := f.client().Fetch(context.Background())
			assert.ErrorIs(t, err, journey.ErrSyncFailed)
			assert.ErrorIs(t, err, journey.ErrParse)
			assert.EqualValues(t, 2, f.hits.Load(), "malformed answers are retried once")
		})
	}
}

func TestFetch_MalformedRecoversOnRetry(t *testing.T) {
	f := newFakeGitHub(t)
	var calls atomic.Int32
	f.router.HandleFunc("/gists/"+testID, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			io.WriteString(w, "<html>")
			return
		}
		w.Write(gistPayload(t, map[string]any{DefaultFileName: map[string]any{"content": `{"entries":[{"id":3,"date":"2024-01-03"}]}`}}))
	})

	doc, err := f.client().Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.EqualValues(t, 2, f.hits.Load())
}

func TestFetch_Failures(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		wantErr  []error
		wantHits int32
	}{
		{"unauthorized is terminal", status(http.StatusUnauthorized), []error{journey.ErrAuth}, 1},
		{"forbidden is terminal", status(http.StatusForbidden), []error{journey.ErrAuth}, 1},
		{"server error is retried once", status(http.StatusInternalServerError), []error{journey.ErrSyncFailed, journey.ErrTransient}, 2},
		{"not found is retried once", status(http.StatusNotFound), []error{journey.ErrSyncFailed, journey.ErrTransient}, 2},
		{"timeout is retried once", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}, []error{journey.ErrSyncFailed, journey.ErrTimeout, journey.ErrTransient}, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeGitHub(t)
			f.router.HandleFunc("/gists/"+testID, tc.handler)

			_, err := f.client(WithTimeout(50 * time.Millisecond)).Fetch(context.Background())
			for _, want := range tc.wantErr {
				assert.ErrorIs(t, err, want)
			}
			assert.Equal(t, tc.wantHits, f.hits.Load())
		})
	}
}

func TestFetch_AuthIsNotSyncFailure(t *testing.T) {
	f := newFakeGitHub(t)
	f.router.HandleFunc("/gists/"+testID, status(http.StatusUnauthorized))

	_, err := f.client().Fetch(context.Background())
	assert.ErrorIs(t, err, journey.ErrAuth)
	assert.NotErrorIs(t, err, journey.ErrSyncFailed)
}

func TestFetch_RecoversOnRetry(t *testing.T) {
	f := newFakeGitHub(t)
	var calls atomic.Int32
	f.router.HandleFunc("/gists/"+testID, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			status(http.StatusBadGateway)(w, r)
			return
		}
		w.Write(gistPayload(t, map[string]any{DefaultFileName: map[string]any{"content": `{"entries":[]}`}}))
	})

	_, err := f.client().Fetch(context.Background())
	assert.NoError(t, err)
	assert.EqualValues(t, 2, f.hits.Load())
}

func TestPush(t *testing.T) {
	f := newFakeGitHub(t)
	var body []byte
	f.router.HandleFunc("/gists/"+testID, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Write(gistPayload(t, nil))
	}).Methods(http.MethodPatch)

	e, err := journey.NewEntry(t0, date.New(2024, 1, 1), decimal.NewFromInt(3), decimal.Zero, "")
	require.NoError(t, err)
	state := journey.State{Entries: []journey.LedgerEntry{e}}
	require.NoError(t, f.client().Push(context.Background(), journey.NewDocument(state, t0)))

	var req struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	require.Contains(t, req.Files, DefaultFileName)

	got, err := journey.DecodeDocument([]byte(req.Files[DefaultFileName].Content), t0)
	require.NoError(t, err)
	assert.Equal(t, journey.DocumentVersion, got.Version)
	require.Len(t, got.Entries, 1)
	assert.True(t, got.Entries[0].Equal(e))
}

func TestPush_Unauthorized(t *testing.T) {
	f := newFakeGitHub(t)
	f.router.HandleFunc("/gists/"+testID, status(http.StatusUnauthorized))

	err := f.client().Push(context.Background(), journey.NewDocument(journey.State{}, t0))
	assert.ErrorIs(t, err, journey.ErrAuth)
	assert.EqualValues(t, 1, f.hits.Load())
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(journey.Credential{Token: testToken})
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, journey.ErrNotConfigured)
	assert.ErrorIs(t, c.Push(context.Background(), &journey.Document{}), journey.ErrNotConfigured)

	c = NewClient(journey.Credential{Token: "bad token", RemoteID: testID})
	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, journey.ErrValidation)
}

func TestCreate(t *testing.T) {
	f := newFakeGitHub(t)
	var body []byte
	f.router.HandleFunc("/gists", func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write(gistPayload(t, nil))
	}).Methods(http.MethodPost)

	c := NewClient(journey.Credential{Token: testToken}, WithBaseURL(f.URL))
	id, err := c.Create(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, testID, id)

	var req struct {
		Description string `json:"description"`
		Public      bool   `json:"public"`
		Files       map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, DefaultDescription, req.Description)
	assert.False(t, req.Public)
	assert.JSONEq(t, `{"version":"1.0","entries":[]}`, req.Files[DefaultFileName].Content)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	f := newFakeGitHub(t)
	f.router.HandleFunc("/gists/"+testID, status(http.StatusServiceUnavailable))
	c := f.client(WithMaxAttempts(1))

	for range 5 {
		_, err := c.Fetch(context.Background())
		require.ErrorIs(t, err, journey.ErrTransient)
	}
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, journey.ErrTransient)
	assert.EqualValues(t, 5, f.hits.Load(), "an open circuit does not reach the server")
}

func TestBreaker_IgnoresAuthFailures(t *testing.T) {
	f := newFakeGitHub(t)
	f.router.HandleFunc("/gists/"+testID, status(http.StatusUnauthorized))
	c := f.client()

	for range 7 {
		_, err := c.Fetch(context.Background())
		require.ErrorIs(t, err, journey.ErrAuth)
	}
	assert.EqualValues(t, 7, f.hits.Load())
}
