package content

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Content
	}{
		{"hello", Content{Kind: KindText, Text: "hello"}},
		{"[IMAGE]https://x/y.png", Content{Kind: KindImage, URL: "https://x/y.png"}},
		{"[AUDIO]https://x/y.webm", Content{Kind: KindAudio, URL: "https://x/y.webm"}},
		{"[NUDGE]", Content{Kind: KindNudge}},
		{"", Content{Kind: KindText, Text: ""}},
		// A nudge marker with trailing text is not a nudge.
		{"[NUDGE] hi", Content{Kind: KindText, Text: "[NUDGE] hi"}},
	}
	for _, tt := range tests {
		if got := Parse(tt.raw); got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestEncodeRoundtrip(t *testing.T) {
	for _, c := range []Content{
		Text("oi"),
		Image("https://cdn/img.png"),
		Audio("https://cdn/clip.webm"),
		Nudge(),
	} {
		if got := Parse(c.Encode()); got != c {
			t.Errorf("roundtrip %+v -> %q -> %+v", c, c.Encode(), got)
		}
	}
}

func TestIsAlert(t *testing.T) {
	if !Nudge().IsAlert() {
		t.Error("nudge should be alert class")
	}
	if Text("[NUDGE]ish").IsAlert() {
		t.Error("text should not be alert class")
	}
}
