package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFileDBEntry_OmitEmpty(t *testing.T) {
	entry := FileDBEntry{
		Status:      FileStatusFailure,
		LastAttempt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	raw := string(data)
	assert.Contains(t, raw, `"status":"failure"`)
	assert.NotContains(t, raw, "error_type")
	assert.NotContains(t, raw, "content_hash")
	assert.NotContains(t, raw, "headings")
}

func TestRunReport_YAML(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	report := RunReport{
		Target:    "docs",
		StartTime: start,
		EndTime:   start.Add(time.Second),
		Updated:   1,
		Failed:    1,
		Files: []FileReport{
			{Path: "README.md", Status: FileStatusUpdated, Headings: 4},
			{Path: "bad.md", Status: FileStatusFailure, ErrorType: "Toc_MultipleMarkers"},
		},
	}

	data, err := yaml.Marshal(report)
	require.NoError(t, err)

	raw := string(data)
	assert.Contains(t, raw, "target: docs")
	assert.Contains(t, raw, "status: updated")
	assert.Contains(t, raw, "error_type: Toc_MultipleMarkers")

	var got RunReport
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, report, got)
}
