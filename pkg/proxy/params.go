package proxy

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	maxBodyBytes = 1 << 20

	paramAddress      = "address"
	paramChainID      = "chainId"
	paramChainIDLower = "chainid"
)

// extractParams reads address and chainId from the query string on GET and
// from the body on POST. chainId wins over chainid when both are set.
func extractParams(w http.ResponseWriter, r *http.Request) (address, chainID string) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		return firstNonEmpty(q.Get(paramAddress)), firstNonEmpty(q.Get(paramChainID), q.Get(paramChainIDLower))
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return "", ""
		}
		return firstNonEmpty(r.PostForm.Get(paramAddress)),
			firstNonEmpty(r.PostForm.Get(paramChainID), r.PostForm.Get(paramChainIDLower))
	}

	b, err := io.ReadAll(r.Body)
	if err != nil || !gjson.ValidBytes(b) {
		return "", ""
	}

	return firstNonEmpty(stringValue(gjson.GetBytes(b, paramAddress))),
		firstNonEmpty(stringValue(gjson.GetBytes(b, paramChainID)), stringValue(gjson.GetBytes(b, paramChainIDLower)))
}

// stringValue accepts JSON strings and numbers, numbers in their literal form.
func stringValue(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
