package monday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func boardJSON(cursor string, items string) string {
	return fmt.Sprintf(`{
		"data": {
			"boards": [{
				"id": "123",
				"name": "Deals",
				"items_page": {"cursor": %q, "items": %s}
			}]
		}
	}`, cursor, items)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token",
		append([]ClientOption{WithBaseURL(srv.URL), WithRateLimit(0)}, opts...)...,
	)
}

func TestGetBoard(t *testing.T) {
	var gotAuth, gotVersion string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("API-Version")
		fmt.Fprint(w, boardJSON("", `[
			{
				"name": "Project Falcon",
				"column_values": [
					{"column": {"title": "Deal Value ($)"}, "text": "$12,500.00"},
					{"column": {"title": "Status"}, "text": "In Progress"}
				]
			},
			{
				"name": "Project Osprey",
				"column_values": [
					{"column": {"title": "Deal Value ($)"}, "text": null},
					{"column": {"title": "Status"}, "text": "Done"}
				]
			}
		]`))
	})

	board, err := client.GetBoard(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, "test-token", gotAuth)
	assert.Equal(t, "2023-10", gotVersion)

	assert.Equal(t, "123", board.ID)
	assert.Equal(t, "Deals", board.Name)
	assert.Equal(t, []string{"Name", "Deal Value ($)", "Status"}, board.Headers)

	require.Len(t, board.Rows, 2)
	assert.Equal(t, map[string]string{
		"Name":           "Project Falcon",
		"Deal Value ($)": "$12,500.00",
		"Status":         "In Progress",
	}, board.Rows[0])

	// Null text leaves the key absent, not "".
	_, present := board.Rows[1]["Deal Value ($)"]
	assert.False(t, present)
	assert.Equal(t, "Done", board.Rows[1]["Status"])
}

func TestGetBoard_FollowsCursor(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if strings.Contains(req.Query, "next_items_page") {
			calls.Add(1)
			assert.Equal(t, "cursor-1", req.Variables["cursor"])
			fmt.Fprint(w, `{
				"data": {
					"next_items_page": {
						"cursor": "",
						"items": [{"name": "Item B", "column_values": []}]
					}
				}
			}`)
			return
		}
		fmt.Fprint(w, boardJSON("cursor-1", `[{"name": "Item A", "column_values": []}]`))
	})

	board, err := client.GetBoard(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, board.Rows, 2)
	assert.Equal(t, "Item A", board.Rows[0][NameColumn])
	assert.Equal(t, "Item B", board.Rows[1][NameColumn])
}

func TestGetBoard_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"boards": []}}`)
	})

	_, err := client.GetBoard(context.Background(), "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "board 999 not found")
}

func TestGetBoard_GraphQLError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [{"message": "invalid board id"}]}`)
	})

	_, err := client.GetBoard(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid board id")
}

func TestGetBoard_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, boardJSON("", `[]`))
	})

	board, err := client.GetBoard(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, board.Rows)
}

func TestGetBoard_NoBackoffAfterFinalAttempt(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithMaxRetries(1))

	start := time.Now()
	_, err := client.GetBoard(context.Background(), "123")
	require.Error(t, err)

	assert.Equal(t, int32(1), calls.Load())
	// The single attempt exhausts the budget, so the call must return
	// without sleeping through a backoff.
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGetBoard_ClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetBoard(context.Background(), "123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAddItems_UntitledColumnsDropped(t *testing.T) {
	b := newBoard("1", "b")
	b.addItems([]item{
		{
			Name: "Row",
			ColumnValues: []columnValue{
				{Text: str("orphan")},
			},
		},
	})

	assert.Equal(t, []string{NameColumn}, b.Headers)
	assert.Equal(t, map[string]string{NameColumn: "Row"}, b.Rows[0])
}
