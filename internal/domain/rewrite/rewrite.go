// Package rewrite holds the pure path and URL transformations applied by the
// gateway before a request is forwarded upstream.
package rewrite

import (
	"fmt"
	"net/url"
	"strings"
)

// StripPrefix removes prefix from the start of path. A path that does not
// start with prefix is returned unchanged. An empty result becomes "/".
//
// Matching is a plain string prefix, so "/newapix" with prefix "/newapi"
// yields "x"; Target roots such results.
func StripPrefix(path, prefix string) string {
	if prefix != "" && strings.HasPrefix(path, prefix) {
		path = path[len(prefix):]
	}
	if path == "" {
		return "/"
	}
	return path
}

// Target resolves an escaped, already rewritten path against the upstream
// origin. The origin's own base path is kept, and rawQuery is carried over
// byte for byte.
func Target(origin *url.URL, escapedPath, rawQuery string) (*url.URL, error) {
	if !strings.HasPrefix(escapedPath, "/") {
		escapedPath = "/" + escapedPath
	}
	full := strings.TrimSuffix(origin.EscapedPath(), "/") + escapedPath

	decoded, err := url.PathUnescape(full)
	if err != nil {
		return nil, fmt.Errorf("rewrite path %q: %w", escapedPath, err)
	}

	return &url.URL{
		Scheme:   origin.Scheme,
		Host:     origin.Host,
		Path:     decoded,
		RawPath:  full,
		RawQuery: rawQuery,
	}, nil
}

// Resolve applies StripPrefix and Target to an inbound URL.
func Resolve(origin *url.URL, prefix string, inbound *url.URL) (*url.URL, error) {
	return Target(origin, StripPrefix(inbound.EscapedPath(), prefix), inbound.RawQuery)
}
