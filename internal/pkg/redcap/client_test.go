package redcap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
)

func testClient() *Client {
	return NewClient(5*time.Second, zerolog.Nop())
}

func TestCheckServerConnection(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{
			name:   "valid supertoken rejected on payload",
			status: http.StatusBadRequest,
			body:   `{"error": "The data is not in the specified format."}`,
			want:   true,
		},
		{
			name:   "invalid supertoken",
			status: http.StatusForbidden,
			body:   `{"error": "You do not have permissions to use the API"}`,
			want:   false,
		},
		{
			name:   "bad request for another reason",
			status: http.StatusBadRequest,
			body:   `{"error": "invalid project settings"}`,
			want:   false,
		},
		{
			name:   "non-json error body",
			status: http.StatusBadRequest,
			body:   "not json",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "project", r.PostFormValue("content"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got := testClient().CheckServerConnection(context.Background(), srv.URL, "supertoken")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckServerConnectionEmptyInputs(t *testing.T) {
	client := testClient()
	assert.False(t, client.CheckServerConnection(context.Background(), "", "supertoken"))
	assert.False(t, client.CheckServerConnection(context.Background(), "http://example.invalid", ""))
}

func TestCheckProjectConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "version", r.PostFormValue("content"))
		if r.PostFormValue("token") != "good-token" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "You do not have permissions to use the API"}`))
			return
		}
		w.Write([]byte("14.5.10"))
	}))
	defer srv.Close()

	client := testClient()
	assert.True(t, client.CheckProjectConnection(context.Background(), srv.URL, "good-token"))
	assert.False(t, client.CheckProjectConnection(context.Background(), srv.URL, "bad-token"))
	assert.False(t, client.CheckProjectConnection(context.Background(), "", "good-token"))
}

func TestPostErrorsSurfaceAsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "You do not have permissions to use the API"}`))
	}))
	defer srv.Close()

	client := testClient()

	_, err := client.ExportRecords(context.Background(), srv.URL, "token", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))

	_, err = client.Version(context.Background(), srv.URL, "token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestImportRecordsCounts(t *testing.T) {
	t.Run("count response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "record", r.PostFormValue("content"))
			assert.Equal(t, "import", r.PostFormValue("action"))
			w.Write([]byte(`{"count": 2}`))
		}))
		defer srv.Close()

		count, err := testClient().ImportRecords(context.Background(), srv.URL, "token", []map[string]interface{}{
			{"record_id": "1"}, {"record_id": "2"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("id array response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`["1", "2", "3"]`))
		}))
		defer srv.Close()

		count, err := testClient().ImportRecords(context.Background(), srv.URL, "token", []map[string]interface{}{
			{"record_id": "1"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestExportRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "export", r.PostFormValue("action"))
		assert.Equal(t, "record_id,age", r.PostFormValue("fields"))
		w.Write([]byte(`[{"record_id": "1", "age": "34"}]`))
	}))
	defer srv.Close()

	records, err := testClient().ExportRecords(context.Background(), srv.URL, "token", []string{"record_id", "age"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "34", records[0]["age"])
}
