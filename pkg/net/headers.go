package net

import (
	"math/rand/v2"
	"net/http"
)

const (
	browserOrigin   = "https://de.fi"
	browserReferer  = "https://de.fi/"
	browserAccept   = "*/*"
	browserLanguage = "en-US,en;q=0.9"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
}

// UserAgents returns a copy of the User-Agent pool.
func UserAgents() []string {
	return append([]string(nil), userAgents...)
}

// RandomUserAgent picks a User-Agent from the pool with a uniform index.
func RandomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}

// SetBrowserHeaders decorates req so it looks like it came from the scanner's
// own web front end.
func SetBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Origin", browserOrigin)
	req.Header.Set("Referer", browserReferer)
	req.Header.Set("Accept", browserAccept)
	req.Header.Set("Accept-Language", browserLanguage)
}
