package net

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
)

// PrintHTTPResponse dumps resp at debug level. The body is buffered and
// restored so callers can still read it.
func PrintHTTPResponse(resp *http.Response) {
	if resp == nil || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		slog.Debug("upstream response", "dump", string(respDump))
	}
}
