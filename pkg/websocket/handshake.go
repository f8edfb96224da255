package websocket

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/Asutorufa/wsserver/pkg/net/deadline"
	"github.com/Asutorufa/wsserver/pkg/net/netapi"
)

const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const (
	maxLineSize    = 1024
	readBufferSize = 4096
)

var (
	requestLineRegexp = regexp.MustCompile(`(?imU)GET (.*) HTTP/`)
	secKeyRegexp      = regexp.MustCompile(`(?imU)Sec-WebSocket-Key:\s(.*)$`)
)

// AcceptKey computes the Sec-WebSocket-Accept value for a
// Sec-WebSocket-Key: base64(sha1(key + GUID)).
func AcceptKey(key string) string {
	h := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(h[:])
}

func responseHeader(accept string) []byte {
	return []byte("HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n" +
		"\r\n")
}

type request struct {
	lines []string
	path  string
	key   string
}

// Handshake runs the server side of the opening handshake on c: it reads
// the upgrade request, answers it with 101 Switching Protocols and returns
// the parsed request. The returned conn replaces c for the frame layer.
//
// Nothing is written to c unless the request has a GET line and a
// Sec-WebSocket-Key header. On error c is left open for the caller to
// close.
func Handshake(c net.Conn) (*Result, net.Conn, error) {
	br := bufio.NewReaderSize(c, readBufferSize)

	raw, err := readRequest(br)
	if err != nil {
		return nil, nil, &HandshakeError{Kind: ErrReadFailure, Stage: StateReadingRequest, Request: raw, Err: err}
	}

	req, err := parseRequest(raw)
	if err != nil {
		return nil, nil, err
	}

	if _, err := c.Write(responseHeader(AcceptKey(req.key))); err != nil {
		return nil, nil, &HandshakeError{
			Kind:    ErrWriteFailure,
			Stage:   StateResponseSent,
			Request: raw,
			Err:     deadline.Classify("write", err),
		}
	}

	conn, err := netapi.MergeBufioReaderConn(c, br)
	if err != nil {
		return nil, nil, &HandshakeError{Kind: ErrReadFailure, Stage: StateResponseSent, Request: raw, Err: err}
	}

	return &Result{path: req.path, lines: req.lines}, conn, nil
}

// readRequest drains the input that is readily available, one CRLF line at
// a time. Between lines it returns at end of stream, after the empty line
// ending the header block, or once nothing is left in the buffer, so a
// request without the final empty line still completes.
func readRequest(br *bufio.Reader) (string, error) {
	var sb strings.Builder

	for {
		line, err := readLine(br, maxLineSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return sb.String(), deadline.Classify("read", err)
		}

		sb.WriteString(line)
		sb.WriteByte('\n')

		if err != nil || br.Buffered() == 0 {
			return sb.String(), nil
		}

		if line == "" && sb.Len() > 1 {
			return sb.String(), nil
		}
	}
}

// readLine reads until CRLF, limit bytes or end of stream, whichever comes
// first. The CRLF is not returned.
func readLine(br *bufio.Reader, limit int) (string, error) {
	buf := make([]byte, 0, 128)

	for len(buf) < limit {
		b, err := br.ReadByte()
		if err != nil {
			return string(buf), err
		}

		buf = append(buf, b)

		if b == '\n' && len(buf) >= 2 && buf[len(buf)-2] == '\r' {
			return string(buf[:len(buf)-2]), nil
		}
	}

	return string(buf), nil
}

func parseRequest(raw string) (*request, error) {
	matches := requestLineRegexp.FindStringSubmatch(raw)
	if matches == nil {
		return nil, &HandshakeError{Kind: ErrMalformedRequest, Stage: StateParsedRequest, Request: raw}
	}

	uri, err := url.Parse(strings.TrimSpace(matches[1]))
	if err != nil {
		return nil, &HandshakeError{Kind: ErrMalformedRequest, Stage: StateParsedRequest, Request: raw, Err: err}
	}

	req := &request{
		lines: strings.Split(raw, "\n"),
		// TODO: keep uri.RawQuery and uri.Fragment as well once callers
		// need them, only the path is exposed today.
		path: uri.EscapedPath(),
	}

	matches = secKeyRegexp.FindStringSubmatch(raw)
	if matches == nil {
		return nil, &HandshakeError{Kind: ErrMissingKey, Stage: StateKeyValidated, Request: raw}
	}

	// The key is used as sent, its length and base64 alphabet are not
	// checked.
	req.key = strings.TrimSpace(matches[1])

	return req, nil
}
