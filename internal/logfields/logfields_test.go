package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Profile", KeyProfile, "release", Profile("release")},
		{"Target", KeyTarget, "web", Target("web")},
		{"Document", KeyDocument, "part-a/index.md", Document("part-a/index.md")},
		{"Kind", KeyKind, "MissingIndex", Kind("MissingIndex")},
		{"Level", KeyLevel, "chapter", Level("chapter")},
		{"Stage", KeyStage, "render", Stage("render")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "file.md", File("file.md")},
		{"Shortcode", KeyShortcode, "image", Shortcode("image")},
		{"URL", KeyURL, "http://localhost:8000", URL("http://localhost:8000")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"Addr", KeyAddr, "127.0.0.1:8000", Addr("127.0.0.1:8000")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if a := Worker(3); a.Key != KeyWorker || a.Value.Int64() != 3 {
		t.Fatalf("unexpected worker attr: %v", a)
	}
	if a := Count(5); a.Key != KeyCount || a.Value.Int64() != 5 {
		t.Fatalf("unexpected count attr: %v", a)
	}
	if a := Status(404); a.Key != KeyStatus || a.Value.Int64() != 404 {
		t.Fatalf("unexpected status attr: %v", a)
	}
	if a := DurationMS(1.5); a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should produce empty value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error value %q", a.Value.String())
	}
}
