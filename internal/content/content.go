// Package content decodes the overloaded message content field into a
// tagged variant exactly once at the store boundary. The wire format keeps
// the legacy string prefixes so rows stay compatible with other clients.
package content

import "strings"

// Kind discriminates the content variant.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindAudio
	KindNudge
)

// Wire prefixes for out-of-band payloads.
const (
	imagePrefix = "[IMAGE]"
	audioPrefix = "[AUDIO]"
	nudgeMarker = "[NUDGE]"
)

// Content is the decoded form of a message body. Text holds the plain
// text for KindText; URL holds the attachment location for image/audio.
type Content struct {
	Kind Kind
	Text string
	URL  string
}

// Parse decodes a raw content string.
func Parse(raw string) Content {
	switch {
	case raw == nudgeMarker:
		return Content{Kind: KindNudge}
	case strings.HasPrefix(raw, imagePrefix):
		return Content{Kind: KindImage, URL: strings.TrimPrefix(raw, imagePrefix)}
	case strings.HasPrefix(raw, audioPrefix):
		return Content{Kind: KindAudio, URL: strings.TrimPrefix(raw, audioPrefix)}
	default:
		return Content{Kind: KindText, Text: raw}
	}
}

// Text returns plain text content.
func Text(s string) Content { return Content{Kind: KindText, Text: s} }

// Image returns image attachment content for the given public URL.
func Image(url string) Content { return Content{Kind: KindImage, URL: url} }

// Audio returns audio attachment content for the given public URL.
func Audio(url string) Content { return Content{Kind: KindAudio, URL: url} }

// Nudge returns the zero-payload alert marker.
func Nudge() Content { return Content{Kind: KindNudge} }

// Encode produces the wire representation for the send path.
func (c Content) Encode() string {
	switch c.Kind {
	case KindImage:
		return imagePrefix + c.URL
	case KindAudio:
		return audioPrefix + c.URL
	case KindNudge:
		return nudgeMarker
	default:
		return c.Text
	}
}

// IsAlert reports whether the content is the attention-getting class.
func (c Content) IsAlert() bool { return c.Kind == KindNudge }
