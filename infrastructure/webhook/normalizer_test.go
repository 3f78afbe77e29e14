package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convodesk/convodesk/domains/message"
)

func TestNormalizeRejectsPayloadWithoutPhone(t *testing.T) {
	_, err := Normalize(map[string]any{"type": "chat", "text": "hello"})
	assert.ErrorIs(t, err, ErrNoPhone)

	_, err = Normalize(nil)
	assert.ErrorIs(t, err, ErrNoPhone)
}

func TestNormalizePhoneDigitsOnlyInvariant(t *testing.T) {
	inputs := []string{
		"+55 (11) 99999-0000",
		"55-11-99999-0000",
		"5511999990000@c.us",
		" +1 202 555 0134 ",
	}
	for _, phone := range inputs {
		msg, err := Normalize(map[string]any{"phone": phone, "text": "hi"})
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]+$`, msg.PhoneDigitsOnly, "input %q", phone)
	}
}

func TestNormalizeTextMessage(t *testing.T) {
	msg, err := Normalize(map[string]any{
		"phone":      "5511999990000",
		"type":       "chat",
		"text":       "hello there",
		"messageId":  "MSG-1",
		"senderName": "Maria",
		"momment":    float64(1714000000000),
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", msg.TextContent)
	assert.Equal(t, "MSG-1", msg.ExternalMessageID)
	assert.Equal(t, "Maria", msg.SenderDisplayName)
	assert.False(t, msg.IsMediaMessage)
	assert.Empty(t, msg.MediaKind)
	assert.Equal(t, time.UnixMilli(1714000000000), msg.Timestamp)
}

func TestNormalizeMediaDispatchCompleteness(t *testing.T) {
	for kind, want := range map[string]message.MediaKind{
		"image":    message.MediaImage,
		"video":    message.MediaVideo,
		"audio":    message.MediaAudio,
		"document": message.MediaDocument,
		"sticker":  message.MediaSticker,
		"ptt":      message.MediaPTT,
	} {
		t.Run(kind, func(t *testing.T) {
			msg, err := Normalize(map[string]any{
				"phone":     "5511999990000",
				"type":      kind,
				"url":       "https://cdn.provider.test/file",
				"messageId": "M-9",
			})
			require.NoError(t, err)
			assert.True(t, msg.IsMediaMessage)
			assert.Equal(t, want, msg.MediaKind)
			assert.Equal(t, "https://cdn.provider.test/file", msg.MediaURL)
			assert.NotEmpty(t, msg.FileName)
		})
	}

	for _, kind := range []string{"location", "contact", "chat", ""} {
		msg, err := Normalize(map[string]any{"phone": "5511999990000", "type": kind})
		require.NoError(t, err)
		assert.False(t, msg.IsMediaMessage, "kind %q", kind)
	}
}

func TestNormalizeVideoCapturesThumbnailAndDuration(t *testing.T) {
	msg, err := Normalize(map[string]any{
		"phone":        "5511999990000",
		"type":         "video",
		"url":          "https://cdn.provider.test/v.mp4",
		"thumbnailUrl": "https://cdn.provider.test/v.jpg",
		"duration":     float64(42),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.provider.test/v.jpg", msg.ThumbnailURL)
	assert.Equal(t, 42, msg.DurationSeconds)
}

func TestNormalizePTTCapturesDurationFromString(t *testing.T) {
	msg, err := Normalize(map[string]any{
		"phone":    "5511999990000",
		"type":     "ptt",
		"url":      "https://cdn.provider.test/a.ogg",
		"duration": "17",
	})
	require.NoError(t, err)
	assert.Equal(t, message.MediaPTT, msg.MediaKind)
	assert.Equal(t, 17, msg.DurationSeconds)
}

func TestNormalizeLocationSynthesizesMapLink(t *testing.T) {
	msg, err := Normalize(map[string]any{
		"phone":     "5511999990000",
		"type":      "location",
		"latitude":  -23.55,
		"longitude": -46.63,
		"title":     "Office",
	})
	require.NoError(t, err)
	assert.False(t, msg.IsMediaMessage)
	assert.Contains(t, msg.MediaURL, "maps.google.com")
	assert.Contains(t, msg.MediaURL, "-23.55")
	assert.Equal(t, "Office", msg.TextContent)

	msg, err = Normalize(map[string]any{"phone": "551", "type": "location", "lat": 1.0, "lng": 2.0})
	require.NoError(t, err)
	assert.Equal(t, "Shared location", msg.TextContent)
}

func TestNormalizeContactCard(t *testing.T) {
	msg, err := Normalize(map[string]any{
		"phone":       "5511999990000",
		"type":        "contact",
		"displayName": "John Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "Contact: John Doe", msg.TextContent)
	assert.False(t, msg.IsMediaMessage)
}

func TestNormalizeQuotedReplyIndependentOfKind(t *testing.T) {
	base := map[string]any{
		"phone": "5511999990000",
		"quotedMsg": map[string]any{
			"messageId": "Q-1",
			"text":      "original words",
		},
	}

	base["type"] = "chat"
	base["text"] = "a reply"
	msg, err := Normalize(base)
	require.NoError(t, err)
	assert.True(t, msg.IsQuotedReply)
	assert.Equal(t, "Q-1", msg.QuotedMessageID)
	assert.Equal(t, "original words", msg.QuotedMessageText)

	base["type"] = "image"
	base["url"] = "https://cdn.provider.test/i.jpg"
	msg, err = Normalize(base)
	require.NoError(t, err)
	assert.True(t, msg.IsQuotedReply)
	assert.True(t, msg.IsMediaMessage)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	payload := map[string]any{
		"phone":     "+55 11 99999-0000",
		"type":      "image",
		"url":       "https://cdn.provider.test/i.jpg",
		"messageId": "M-42",
		"timestamp": float64(1714000000),
	}

	first, err := Normalize(payload)
	require.NoError(t, err)
	second, err := Normalize(payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeTimestampDefaultsToNow(t *testing.T) {
	before := time.Now()
	msg, err := Normalize(map[string]any{"phone": "5511999990000", "text": "x"})
	require.NoError(t, err)
	assert.False(t, msg.Timestamp.Before(before))
	assert.False(t, msg.Timestamp.After(time.Now()))
}

func TestNormalizeEpochSecondsUpgradedToMillis(t *testing.T) {
	msg, err := Normalize(map[string]any{
		"phone":     "5511999990000",
		"timestamp": float64(1714000000),
	})
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1714000000000), msg.Timestamp)
}

func TestNormalizeToleratesGarbageFieldTypes(t *testing.T) {
	// Wrong types everywhere must degrade to defaults, never panic.
	msg, err := Normalize(map[string]any{
		"phone":     "5511999990000",
		"type":      123,
		"text":      []any{"not", "a", "string"},
		"messageId": map[string]any{},
		"duration":  true,
		"quotedMsg": "not an object",
	})
	require.NoError(t, err)
	assert.Equal(t, "", msg.TextContent)
	assert.Equal(t, "", msg.ExternalMessageID)
	assert.False(t, msg.IsQuotedReply)
}
