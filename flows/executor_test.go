package flows_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/stretchr/testify/require"
)

func TestHTTPExecutor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/ok":
			require.Equal(t, "application/json", r.Header.Get("Accept"))
			require.Equal(t, "a=1", string(body))
			_, _ = w.Write([]byte(`{"access_token":"x"}`))
		case "/slow":
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		default:
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	executor := flows.NewHTTPExecutor(srv.Client(), 100*time.Millisecond)
	ctx := context.Background()

	resp, err := executor.Do(ctx, &flows.Request{
		URL:     srv.URL + "/ok",
		Method:  http.MethodPost,
		Headers: map[string]string{"Accept": "application/json"},
		Body:    "a=1",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"access_token":"x"}`, string(resp.Body))

	resp, err = executor.Do(ctx, &flows.Request{URL: srv.URL + "/bad", Method: http.MethodPost})
	require.ErrorIs(t, err, flows.ErrUnsuccessfulStatus)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(resp.Body), "invalid_grant")

	_, err = executor.Do(ctx, &flows.Request{URL: srv.URL + "/slow", Method: http.MethodGet})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
