package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotionMembers(t *testing.T) {
	t.Run("follows pagination and skips pages without email", func(t *testing.T) {
		var cursors []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/databases/db1/query", r.URL.Path)
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("Notion-Version"))

			var q notionQuery
			require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
			assert.Equal(t, "Tags", q.Filter.Property)
			assert.Equal(t, "PL members", q.Filter.MultiSelect["contains"])
			cursors = append(cursors, q.StartCursor)

			if q.StartCursor == "" {
				fmt.Fprint(w, `{"results":[{"properties":{"Email":{"email":"a@example.com"}}},{"properties":{"Email":{"email":null}}}],"has_more":true,"next_cursor":"c2"}`)
				return
			}
			fmt.Fprint(w, `{"results":[{"properties":{"Email":{"email":"b@example.com"}}},{"properties":{}}],"has_more":false,"next_cursor":null}`)
		}))
		defer server.Close()

		n := NewNotion("key", "db1", "", server.URL)
		emails, err := n.Members(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, emails)
		assert.Equal(t, []string{"", "c2"}, cursors)
	})

	t.Run("missing credentials is an empty list", func(t *testing.T) {
		n := NewNotion("", "db1", "", "http://127.0.0.1:0")
		assert.False(t, n.Configured())
		emails, err := n.Members(context.Background())
		require.NoError(t, err)
		assert.Empty(t, emails)
	})

	t.Run("error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := NewNotion("key", "db1", "Donors", server.URL).Members(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})
}
