package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventsDoc struct {
	Events []struct {
		Name string `json:"name"`
	} `json:"events"`
}

func TestParseJSONResponse_RawObject(t *testing.T) {
	doc, err := ParseJSONResponse[eventsDoc](`{"events":[{"name":"Harvest Fair"}]}`)
	require.NoError(t, err)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, "Harvest Fair", doc.Events[0].Name)
}

func TestParseJSONResponse_MarkdownFencedObject(t *testing.T) {
	response := "```json\n{\"events\":[{\"name\":\"Night Market\"}]}\n```"
	doc, err := ParseJSONResponse[eventsDoc](response)
	require.NoError(t, err)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, "Night Market", doc.Events[0].Name)
}

func TestParseJSONResponse_FencedWithoutLanguageTag(t *testing.T) {
	response := "```\n{\"events\":[]}\n```"
	doc, err := ParseJSONResponse[eventsDoc](response)
	require.NoError(t, err)
	assert.Empty(t, doc.Events)
}

func TestParseJSONResponse_ConversationalWrapping(t *testing.T) {
	response := `Here is the data you asked for: {"events":[{"name":"Open Studio"}]} Let me know if you need more.`
	doc, err := ParseJSONResponse[eventsDoc](response)
	require.NoError(t, err)
	require.Len(t, doc.Events, 1)
}

func TestParseJSONResponse_Array(t *testing.T) {
	type event struct {
		Name string `json:"name"`
	}
	response := "```json\n[{\"name\":\"Jazz on the Pier\"},{\"name\":\"Coastal Cleanup\"}]\n```"
	events, err := ParseJSONResponse[[]event](response)
	require.NoError(t, err)
	assert.Len(t, *events, 2)
}

func TestParseJSONResponse_InvalidJSON(t *testing.T) {
	_, err := ParseJSONResponse[eventsDoc](`{"events": [unterminated`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal LLM JSON response")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "abcde...", truncateString("abcdefgh", 5))
}
