// Package webhook decodes the provider's inbound push notifications into
// the canonical message shape. The provider never versioned its payloads,
// so every field is looked up under every name it has historically used.
package webhook

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/convodesk/convodesk/domains/message"
	"github.com/convodesk/convodesk/pkg/apperror"
	"github.com/convodesk/convodesk/pkg/phoneutil"
)

// ErrNoPhone is the single rejection reason: a payload with no
// phone-identifying field cannot be routed to a conversation. Everything
// else degrades to defaults, because dropping a customer message is worse
// than ingesting it with missing optional fields.
var ErrNoPhone = apperror.ValidationError("webhook payload carries no phone field")

var phoneKeys = []string{"phone", "from", "sender", "chatId", "author", "participantPhone"}
var typeKeys = []string{"type", "messageType", "kind"}
var textKeys = []string{"text", "body", "message", "content", "caption"}
var messageIDKeys = []string{"messageId", "id", "msgId"}
var senderNameKeys = []string{"senderName", "pushName", "notifyName", "chatName"}
var mediaURLKeys = []string{"url", "mediaUrl", "fileUrl", "downloadUrl", "directPath"}
var fileNameKeys = []string{"fileName", "filename", "title", "documentName"}
var thumbnailKeys = []string{"thumbnailUrl", "thumbnail", "jpegThumbnail"}
var durationKeys = []string{"duration", "seconds", "durationSeconds"}
var timestampKeys = []string{"timestamp", "momment", "moment", "t"}
var quotedKeys = []string{"quotedMsg", "quotedMessage", "quoted", "referencedMessage"}

var mediaKinds = map[string]message.MediaKind{
	"image":    message.MediaImage,
	"video":    message.MediaVideo,
	"audio":    message.MediaAudio,
	"document": message.MediaDocument,
	"sticker":  message.MediaSticker,
	"ptt":      message.MediaPTT,
}

var fileExtensions = map[message.MediaKind]string{
	message.MediaImage:    "jpg",
	message.MediaVideo:    "mp4",
	message.MediaAudio:    "ogg",
	message.MediaPTT:      "ogg",
	message.MediaDocument: "bin",
	message.MediaSticker:  "webp",
}

// Normalize converts an arbitrary provider payload into one canonical
// inbound message. It is pure and total over any map input: it never
// panics, any missing field degrades to a default, and only a missing
// phone field rejects the payload.
func Normalize(raw map[string]any) (*message.Inbound, error) {
	if raw == nil {
		return nil, ErrNoPhone
	}

	phone := phoneutil.DigitsOnly(firstString(raw, phoneKeys))
	if phone == "" {
		return nil, ErrNoPhone
	}

	msg := &message.Inbound{
		PhoneDigitsOnly:   phone,
		ExternalMessageID: firstString(raw, messageIDKeys),
		SenderDisplayName: firstString(raw, senderNameKeys),
		Timestamp:         extractTimestamp(raw),
	}

	kind := firstString(raw, typeKeys)
	switch {
	case mediaKinds[kind] != "":
		mediaKind := mediaKinds[kind]
		msg.IsMediaMessage = true
		msg.MediaKind = mediaKind
		msg.MediaURL = firstString(raw, mediaURLKeys)
		msg.TextContent = firstString(raw, textKeys)
		msg.FileName = firstString(raw, fileNameKeys)
		if msg.FileName == "" {
			// Keyed on the external id so repeated normalization of the
			// same payload generates the same name.
			ref := msg.ExternalMessageID
			if ref == "" {
				ref = uuid.NewString()
			}
			msg.FileName = fmt.Sprintf("%s-%s.%s", kind, ref, fileExtensions[mediaKind])
		}
		if mediaKind == message.MediaVideo {
			msg.ThumbnailURL = firstString(raw, thumbnailKeys)
			msg.DurationSeconds = firstInt(raw, durationKeys)
		}
		if mediaKind == message.MediaAudio || mediaKind == message.MediaPTT {
			msg.DurationSeconds = firstInt(raw, durationKeys)
		}

	case kind == "location":
		lat := firstFloat(raw, []string{"latitude", "lat"})
		lng := firstFloat(raw, []string{"longitude", "lng", "lon"})
		msg.MediaURL = fmt.Sprintf("https://maps.google.com/?q=%v,%v", lat, lng)
		msg.TextContent = firstString(raw, []string{"title", "name", "address"})
		if msg.TextContent == "" {
			msg.TextContent = "Shared location"
		}

	case kind == "contact":
		name := firstString(raw, []string{"displayName", "contactName", "name"})
		if name == "" {
			name = "unknown"
		}
		msg.TextContent = fmt.Sprintf("Contact: %s", name)

	default:
		msg.TextContent = firstString(raw, textKeys)
	}

	// Quoted-reply detection is orthogonal to the kind dispatch: any
	// payload may carry a nested quoted message object.
	if quoted := firstObject(raw, quotedKeys); quoted != nil {
		msg.IsQuotedReply = true
		msg.QuotedMessageID = firstString(quoted, messageIDKeys)
		msg.QuotedMessageText = firstString(quoted, textKeys)
	}

	return msg, nil
}

// firstString returns the first non-empty string found under keys.
func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstObject(raw map[string]any, keys []string) map[string]any {
	for _, key := range keys {
		if v, ok := raw[key].(map[string]any); ok {
			return v
		}
	}
	return nil
}

// firstInt tolerates the number encodings JSON decoding produces plus the
// string-typed numbers some provider versions send.
func firstInt(raw map[string]any, keys []string) int {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}

func firstFloat(raw map[string]any, keys []string) float64 {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// extractTimestamp accepts epoch seconds or milliseconds and defaults to
// now when the payload carries nothing usable.
func extractTimestamp(raw map[string]any) time.Time {
	for _, key := range timestampKeys {
		ms := int64(firstFloat(raw, []string{key}))
		if ms <= 0 {
			continue
		}
		// Values below ~10^12 are epoch seconds.
		if ms < 1_000_000_000_000 {
			ms *= 1000
		}
		return time.UnixMilli(ms)
	}
	return time.Now()
}
