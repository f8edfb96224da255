package websocket

import "strings"

// Result is the request of a completed handshake.
type Result struct {
	path  string
	lines []string
}

// Path returns the path of the request target. The query and the fragment
// are not parsed and never show up here.
func (r *Result) Path() string { return r.path }

// Request returns the request lines in the order they were received,
// including the empty lines left by the header terminator.
func (r *Result) Request() []string {
	return append([]string(nil), r.lines...)
}

// Header returns the trimmed text after the first colon of the first
// request line containing name, compared case-insensitively.
//
// This is a substring match over whole lines, not a header name lookup:
// Header("upgrade") also hits "Connection: Upgrade", and the request line
// is a candidate too.
func (r *Result) Header(name string) (string, bool) {
	name = strings.ToLower(name)

	for _, line := range r.lines {
		if !strings.Contains(strings.ToLower(line), name) {
			continue
		}

		_, value, _ := strings.Cut(line, ":")
		return strings.TrimSpace(value), true
	}

	return "", false
}
