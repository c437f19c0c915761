package summarize

import (
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// Prompt text sent with every request.
const (
	SystemPrompt     = "You are generating a video summary. Please provide a summary of the video. Respond in Markdown."
	FramesIntro      = "These are the frames from the video."
	TranscriptPrefix = "The audio transcription is: "
)

// FrameMIME is the media type declared for every frame data URL. The
// sampler writes PNG files, so the declared type matches the payload.
const FrameMIME = "image/png"

// deterministicTemperature stands in for 0. The request struct tags
// temperature with omitempty, so a literal zero would be dropped and the
// server default used instead.
const deterministicTemperature = math.SmallestNonzeroFloat32

// BuildRequest assembles the chat completion request for one video: a system
// message, then a single user message with the intro text, one low-detail
// image part per frame in the given order, and the transcript.
func BuildRequest(model string, frames []string, transcript string) openai.ChatCompletionRequest {
	parts := make([]openai.ChatMessagePart, 0, len(frames)+2)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: FramesIntro,
	})
	for _, frame := range frames {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL(frame),
				Detail: openai.ImageURLDetailLow,
			},
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: TranscriptPrefix + transcript,
	})

	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: deterministicTemperature,
	}
}

func dataURL(payload string) string {
	return "data:" + FrameMIME + ";base64," + payload
}
