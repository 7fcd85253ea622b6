package request

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJob(t *testing.T, body string) (CreateJob, error) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(body))
	var req CreateJob
	err := Decode(r, &req)
	return req, err
}

func TestCreateJobAcceptsAnyJobType(t *testing.T) {
	// The executor has a fallback for job types it carries no handler
	// for; the request layer must not close that door.
	for _, jobType := range []string{"config", "scan", "migration", "network_analysis", "maintenance"} {
		t.Run(jobType, func(t *testing.T) {
			req, err := decodeJob(t, `{
				"name": "test",
				"job_type": "`+jobType+`",
				"schedule": "0 2 * * *",
				"source_server_id": "srv-1"
			}`)
			require.NoError(t, err)
			assert.Equal(t, jobType, req.JobType)
		})
	}
}

func TestCreateJobRequiresJobType(t *testing.T) {
	_, err := decodeJob(t, `{
		"name": "test",
		"schedule": "0 2 * * *",
		"source_server_id": "srv-1"
	}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestCreateJobRejectsOversizedJobType(t *testing.T) {
	_, err := decodeJob(t, `{
		"name": "test",
		"job_type": "`+strings.Repeat("x", 65)+`",
		"schedule": "0 2 * * *",
		"source_server_id": "srv-1"
	}`)
	assert.Error(t, err)
}
