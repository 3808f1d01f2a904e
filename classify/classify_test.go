package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/inboxmesh/triage"
)

var sampleMsgs = []Message{
	{UID: 1, From: "news@weekly.dev", Subject: "Weekly digest"},
	{UID: 2, From: "boss@corp.example", Subject: "Need the report"},
	{UID: 3, From: "noreply@ci.example", Subject: "Build passed"},
}

func TestParseResult(t *testing.T) {
	data := []byte(`{"results":[
		{"uid":1,"category":"newsletter","confidence":0.95},
		{"uid":2,"category":"action-required","confidence":0.8},
		{"uid":3,"category":"notification","confidence":0.92}
	]}`)

	c, err := ParseResult(data, sampleMsgs)
	require.NoError(t, err)

	assert.Equal(t, []triage.Item{{UID: 1, Confidence: 0.95}}, c.ByCategory[triage.CategoryNewsletter])
	assert.Equal(t, []triage.Item{{UID: 2, Confidence: 0.8}}, c.ByCategory[triage.CategoryActionRequired])
	assert.Equal(t, 3, c.Summary.TotalProcessed)
	assert.Equal(t, 2, c.Summary.HighConfidence)
	assert.Equal(t, 1, c.Summary.NeedsReview)
}

func TestParseResult_RejectsUnknownCategory(t *testing.T) {
	data := []byte(`{"results":[{"uid":1,"category":"spam","confidence":0.9}]}`)
	_, err := ParseResult(data, sampleMsgs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestParseResult_RejectsUnknownUID(t *testing.T) {
	data := []byte(`{"results":[{"uid":99,"category":"fyi","confidence":0.9}]}`)
	_, err := ParseResult(data, sampleMsgs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown uid")
}

func TestParseResult_MalformedJSON(t *testing.T) {
	_, err := ParseResult([]byte("not json"), sampleMsgs)
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	wrapped := "Sure! Here is the result:\n```json\n{\"results\":[]}\n```\n"
	assert.Equal(t, `{"results":[]}`, ExtractJSON(wrapped))

	plain := `{"results":[]}`
	assert.Equal(t, plain, ExtractJSON(plain))

	// No JSON object at all passes through unchanged for the decoder to reject.
	assert.Equal(t, "nope", ExtractJSON("nope"))
}

func TestMockClassifier(t *testing.T) {
	mock := NewMock().
		Add(1, triage.CategoryNewsletter, 0.95).
		Add(2, triage.CategoryActionRequired, 0.8)

	c, err := mock.Classify(context.Background(), sampleMsgs)
	require.NoError(t, err)

	assert.Len(t, c.ByCategory[triage.CategoryNewsletter], 1)
	assert.Len(t, c.ByCategory[triage.CategoryActionRequired], 1)
	// Unregistered uid 3 defaults to fyi with zero confidence.
	assert.Equal(t, []triage.Item{{UID: 3}}, c.ByCategory[triage.CategoryFYI])
	assert.Equal(t, 3, c.Summary.TotalProcessed)
}
