package meet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"meeting code", "abc-mnop-xyz", "spaces/abc-mnop-xyz"},
		{"resource name", "spaces/jQCFfuBOdN5z", "spaces/jQCFfuBOdN5z"},
		{"trimmed", "  abc-mnop-xyz ", "spaces/abc-mnop-xyz"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spaceName(tt.in))
		})
	}
}

func TestClient_GetSpace(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":        "spaces/jQCFfuBOdN5z",
			"meetingUri":  "https://meet.google.com/abc-mnop-xyz",
			"meetingCode": "abc-mnop-xyz",
			"config": map[string]any{
				"accessType":       "TRUSTED",
				"entryPointAccess": "ALL",
			},
			"activeConference": map[string]any{"conferenceRecord": "conferenceRecords/1"},
		})
	}))
	defer srv.Close()

	c := NewClient(StaticServiceFactory(srv.URL+"/", srv.Client()), nil)
	space, err := c.GetSpace(context.Background(), "alice", "abc-mnop-xyz")
	require.NoError(t, err)

	assert.Equal(t, "/v2/spaces/abc-mnop-xyz", gotPath)
	assert.Equal(t, "spaces/jQCFfuBOdN5z", space.Name)
	assert.Equal(t, "TRUSTED", space.AccessType)
	assert.Equal(t, "ALL", space.EntryPointAccess)
	assert.True(t, space.Active())
}

func TestClient_GetSpace_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(StaticServiceFactory(srv.URL+"/", srv.Client()), nil)

	_, err := c.GetSpace(context.Background(), "alice", "")
	assert.Error(t, err)

	_, err = c.GetSpace(context.Background(), "alice", "missing-code")
	assert.ErrorContains(t, err, "failed to get space")
}
