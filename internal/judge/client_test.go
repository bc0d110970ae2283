package judge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := []Option{
		WithBaseURL(srv.URL),
		WithBackoff(time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(append(base, opts...)...)
}

func TestFetchCatalogParsesProblems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/problemset.problems", r.URL.Path)
		fmt.Fprint(w, `{"status":"OK","result":{"problems":[
			{"contestId":1,"index":"A","name":"Theatre Square","rating":1000,"tags":["math"]},
			{"contestId":2,"index":"B","name":"Unrated"}
		]}}`)
	})

	problems, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, "1-A", problems[0].ID())
	require.NotNil(t, problems[0].Rating)
	assert.Equal(t, 1000, *problems[0].Rating)
	assert.Nil(t, problems[1].Rating)
	assert.Empty(t, problems[1].Tags)
}

func TestFetchSubmissionsSendsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user.status", r.URL.Path)
		assert.Equal(t, "petr", r.URL.Query().Get("handle"))
		assert.Equal(t, "1", r.URL.Query().Get("from"))
		assert.Equal(t, "100000", r.URL.Query().Get("count"))
		fmt.Fprint(w, `{"status":"OK","result":[
			{"id":11,"creationTimeSeconds":1700000000,"verdict":"OK","problem":{"contestId":1,"index":"A"}},
			{"id":12,"creationTimeSeconds":1700000100,"problem":{"contestId":1,"index":"B"}}
		]}`)
	})

	subs, err := client.FetchSubmissions(context.Background(), "petr")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(11), subs[0].ID)
	assert.Equal(t, VerdictOK, subs[0].Verdict)
	assert.Equal(t, "", subs[1].Verdict)
	assert.Equal(t, "1-B", subs[1].Problem.ID())
}

func TestSolvedSetKeepsAcceptedOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"OK","result":[
			{"id":1,"creationTimeSeconds":1,"verdict":"OK","problem":{"contestId":5,"index":"C"}},
			{"id":2,"creationTimeSeconds":2,"verdict":"WRONG_ANSWER","problem":{"contestId":5,"index":"D"}},
			{"id":3,"creationTimeSeconds":3,"verdict":"OK","problem":{"index":"E"}}
		]}`)
	})

	solved, err := client.SolvedSet(context.Background(), "petr")
	require.NoError(t, err)
	assert.Len(t, solved, 1)
	assert.Contains(t, solved, "5-C")
}

func TestSolvedSetEmptyHandleSkipsRequest(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	solved, err := client.SolvedSet(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, solved)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestTransportFailuresAreRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"status":"OK","result":{"problems":[]}}`)
	})

	_, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTransportFailurePropagatesAfterBudget(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetries(1))

	_, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNonOKEnvelopeIsNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status":"FAILED","comment":"handle: User with handle nobody not found"}`)
	})

	_, err := client.FetchSubmissions(context.Background(), "nobody")
	require.Error(t, err)
	var serviceErr *RemoteServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "FAILED", serviceErr.Status)
	assert.Contains(t, serviceErr.Comment, "not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `<html>maintenance</html>`)
	}, WithRetries(0))

	_, err := client.FetchCatalog(context.Background())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		cancel()
		w.WriteHeader(http.StatusBadGateway)
	}, WithBackoff(time.Hour))

	_, err := client.FetchCatalog(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProblemURL(t *testing.T) {
	client := New(WithBaseURL("https://codeforces.com/"))
	assert.Equal(t, "https://codeforces.com/problemset/problem/1791/F", client.ProblemURL(1791, "F"))
}

func TestWithTimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: 3 * time.Second}

	before := New(WithTimeout(time.Second), WithHTTPClient(shared))
	after := New(WithHTTPClient(shared), WithTimeout(time.Second))

	assert.Equal(t, 3*time.Second, shared.Timeout)
	assert.Equal(t, time.Second, before.http.Timeout)
	assert.Equal(t, time.Second, after.http.Timeout)
	assert.NotSame(t, shared, after.http)

	plain := New(WithHTTPClient(shared))
	assert.Same(t, shared, plain.http)
}
