package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyProfile    = "profile"
	KeyTarget     = "target"
	KeyDocument   = "document"
	KeyKind       = "kind"
	KeyLevel      = "level"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyWorker     = "worker"
	KeyShortcode  = "shortcode"
	KeyCount      = "count"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Profile(p string) slog.Attr      { return slog.String(KeyProfile, p) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Document(d string) slog.Attr     { return slog.String(KeyDocument, d) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Level(l string) slog.Attr        { return slog.String(KeyLevel, l) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Worker(w int) slog.Attr          { return slog.Int(KeyWorker, w) }
func Shortcode(name string) slog.Attr { return slog.String(KeyShortcode, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
