package ltbs

import "go.uber.org/zap"

// nopLogger is used whenever a Store is created/opened without an explicit
// WithLogger option, so call sites never need a nil check.
//
// Grounded on caddy/pmtiles_proxy.go's *zap.Logger plumbing (a logger
// threaded through as a field, logged to with structured fields rather
// than fmt.Sprintf).
var nopLogger = zap.NewNop()

func orNopLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return nopLogger
	}
	return l
}
