package summarize

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest_Shape(t *testing.T) {
	frames := []string{"AAA", "BBB", "CCC"}

	req := BuildRequest("gpt-4o", frames, "hello")

	assert.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 2)

	system := req.Messages[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, system.Role)
	assert.Equal(t, SystemPrompt, system.Content)

	user := req.Messages[1]
	assert.Equal(t, openai.ChatMessageRoleUser, user.Role)
	require.Len(t, user.MultiContent, 5)

	assert.Equal(t, openai.ChatMessagePartTypeText, user.MultiContent[0].Type)
	assert.Equal(t, FramesIntro, user.MultiContent[0].Text)

	for i, frame := range frames {
		part := user.MultiContent[i+1]
		assert.Equal(t, openai.ChatMessagePartTypeImageURL, part.Type)
		require.NotNil(t, part.ImageURL)
		assert.Equal(t, "data:image/png;base64,"+frame, part.ImageURL.URL)
		assert.Equal(t, openai.ImageURLDetailLow, part.ImageURL.Detail)
	}

	last := user.MultiContent[4]
	assert.Equal(t, openai.ChatMessagePartTypeText, last.Type)
	assert.Equal(t, "The audio transcription is: hello", last.Text)
}

func TestBuildRequest_OneSystemMessageOneTranscriptPart(t *testing.T) {
	req := BuildRequest("m", []string{"x", "y", "z"}, "hello")

	var systems, transcripts, images int
	for _, msg := range req.Messages {
		if msg.Role == openai.ChatMessageRoleSystem {
			systems++
		}
		for _, part := range msg.MultiContent {
			switch part.Type {
			case openai.ChatMessagePartTypeImageURL:
				images++
			case openai.ChatMessagePartTypeText:
				if part.Text == TranscriptPrefix+"hello" {
					transcripts++
				}
			}
		}
	}
	assert.Equal(t, 1, systems)
	assert.Equal(t, 3, images)
	assert.Equal(t, 1, transcripts)
}

func TestBuildRequest_NoFrames(t *testing.T) {
	req := BuildRequest("m", nil, "")

	parts := req.Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, TranscriptPrefix, parts[1].Text)
}

func TestBuildRequest_TemperatureIsSerialized(t *testing.T) {
	req := BuildRequest("m", []string{"a"}, "t")

	assert.InDelta(t, 0, req.Temperature, 1e-6)

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	_, ok := body["temperature"]
	assert.True(t, ok, "temperature must be present on the wire")
}
