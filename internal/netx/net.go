// Package netx has small HTTP helpers shared by the remote clients.
package netx

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// JoinURL appends path to base with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Detail extracts a human-readable failure reason from an error response.
// JSON bodies of the form {"detail": ...} yield the detail (string details
// verbatim, anything else as compact JSON); other bodies yield their text
// or, when empty, the status line.
func Detail(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var doc struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &doc); err == nil && len(doc.Detail) > 0 && string(doc.Detail) != "null" {
		var s string
		if err := json.Unmarshal(doc.Detail, &s); err == nil {
			return s
		}
		return string(doc.Detail)
	}

	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return resp.Status
}

// DrainClose discards the rest of the body so the connection can be reused.
func DrainClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
