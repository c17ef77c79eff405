package rotation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/dutyflow/internal/failure"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

type callLog struct {
	mu    sync.Mutex
	calls []recorded
}

func (l *callLog) all() []recorded {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recorded(nil), l.calls...)
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *callLog) {
	t.Helper()
	log := &callLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		log.mu.Lock()
		log.calls = append(log.calls, recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: string(data)})
		log.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

func TestFetchStatus(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"current_duty": {"id": 3, "name": "Alex"},
			"next_in_rotation": {"id": "b-7", "name": "Blair"},
			"system_status": {"last_reminder_run": "never"}
		}`)
	})

	client := NewClient(srv.URL+"/", WithTokenSource(TokenFunc(func() string { return "tok" })))
	status, err := client.FetchStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, Person{ID: "3", Name: "Alex"}, status.CurrentDuty)
	require.Equal(t, Person{ID: "b-7", Name: "Blair"}, status.NextInRotation)
	require.Equal(t, "never", status.SystemStatus.LastReminderRun.Display())

	got := calls.all()
	require.Len(t, got, 1)
	require.Equal(t, http.MethodGet, got[0].method)
	require.Equal(t, "/status", got[0].path)
	require.Equal(t, "Bearer tok", got[0].auth)
}

func TestMutationsPostExpectedBodies(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := NewClient(srv.URL)
	ctx := context.Background()

	require.NoError(t, client.SendReminder(ctx, Standard()))
	require.NoError(t, client.SendReminder(ctx, Custom("Take it out!")))
	require.NoError(t, client.SkipTurn(ctx))
	require.NoError(t, client.AdvanceTurn(ctx))

	got := calls.all()
	require.Len(t, got, 4)
	require.Equal(t, "/reminder", got[0].path)
	require.JSONEq(t, `{}`, got[0].body)
	require.JSONEq(t, `{"message":"Take it out!"}`, got[1].body)
	require.Equal(t, "/skip-turn", got[2].path)
	require.Equal(t, "/advance-turn", got[3].path)
	for _, call := range got {
		require.Equal(t, http.MethodPost, call.method)
		require.Empty(t, call.auth, "no token source means no header")
	}
}

func TestServerErrorsCarryMessage(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"message":"scheduler offline"}`)
		case "/skip-turn":
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, "forbidden")
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})
	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.FetchStatus(ctx)
	require.ErrorIs(t, err, failure.ErrServer)
	require.Equal(t, "scheduler offline", failure.Message(err))

	err = client.SkipTurn(ctx)
	require.ErrorIs(t, err, failure.ErrServer)
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusForbidden, fe.Status)
	require.Equal(t, "forbidden", fe.Message)

	err = client.AdvanceTurn(ctx)
	require.ErrorIs(t, err, failure.ErrServer)
	require.Equal(t, "unexpected status 502", failure.Message(err))
}

func TestUnparseableStatusIsServerError(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})
	_, err := NewClient(srv.URL).FetchStatus(context.Background())
	require.ErrorIs(t, err, failure.ErrServer)
	require.NotErrorIs(t, err, failure.ErrNetwork)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, WithTimeout(time.Second))
	_, err := client.FetchStatus(context.Background())
	require.ErrorIs(t, err, failure.ErrNetwork)
	require.ErrorIs(t, client.SendReminder(context.Background(), Standard()), failure.ErrNetwork)
}

func TestPublicIssuesAcceptsBothShapes(t *testing.T) {
	t.Parallel()

	issue := map[string]any{
		"id":          12,
		"title":       "Bin lid broken",
		"status":      "open",
		"reported_by": "Alex",
		"created_at":  "2026-10-01T08:00:00Z",
	}
	bare, err := json.Marshal([]any{issue})
	require.NoError(t, err)
	wrapped, err := json.Marshal(map[string]any{"issues": []any{issue}})
	require.NoError(t, err)

	for name, payload := range map[string][]byte{"bare": bare, "wrapped": wrapped} {
		payload := payload
		srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(payload)
		})
		issues, err := NewClient(srv.URL).PublicIssues(context.Background())
		require.NoError(t, err, name)
		require.Len(t, issues, 1, name)
		require.Equal(t, Ident("12"), issues[0].ID)
		require.Equal(t, "Bin lid broken", issues[0].Title)
		require.Equal(t, "/issues/public", calls.all()[0].path)
	}
}

func TestLabelDisplay(t *testing.T) {
	t.Parallel()

	require.Equal(t, "N/A", Label("").Display())
	require.Equal(t, "N/A", Person{}.DisplayName())

	var l Label
	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	require.Equal(t, "N/A", l.Display())
	require.NoError(t, json.Unmarshal([]byte(`1700000000`), &l))
	require.Equal(t, "1700000000", l.Display())

	ts := time.Date(2026, 10, 7, 9, 30, 0, 0, time.UTC)
	require.Equal(t, ts.Local().Format("02-01-2006 15:04"), Label(ts.Format(time.RFC3339)).Display())
}

func TestReminderVariant(t *testing.T) {
	t.Parallel()

	require.False(t, Standard().IsCustom())
	require.Empty(t, Standard().Message())
	custom := Custom("Take it out!")
	require.True(t, custom.IsCustom())
	require.Equal(t, "Take it out!", custom.Message())
}

func TestWithTimeoutLeavesSuppliedClientAlone(t *testing.T) {
	t.Parallel()

	shared := &http.Client{}
	client := NewClient("http://127.0.0.1:1", WithHTTPClient(shared), WithTimeout(3*time.Second))
	require.Equal(t, time.Duration(0), shared.Timeout)
	require.Equal(t, 3*time.Second, client.HTTPClient.Timeout)
	require.NotSame(t, shared, client.HTTPClient)
}
