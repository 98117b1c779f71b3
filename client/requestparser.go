package client

import (
	"bufio"
	"fmt"
)

// readRequest reads the next step of the remote-device request
// sub-protocol from br: a plain byte to echo, or, once a "?" marker is
// seen, one of the three requests described in §6 ("?k", "?f<path>?",
// or an invalid byte, which terminates the client).
func readRequest(br *bufio.Reader) (request, error) {
	b, err := br.ReadByte()
	if err != nil {
		return request{}, err
	}
	if b != '?' {
		return request{kind: requestEcho, echo: b}, nil
	}

	cmd, err := br.ReadByte()
	if err != nil {
		return request{}, err
	}
	switch cmd {
	case 'k':
		return request{kind: requestKernel}, nil
	case 'f':
		path, terminated, err := readPathUntilMarker(br)
		if err != nil {
			return request{}, err
		}
		if terminated {
			return request{kind: requestTerminate, err: "exceeded path length"}, nil
		}
		return request{kind: requestFile, path: path}, nil
	default:
		return request{kind: requestTerminate, err: fmt.Sprintf("invalid request '%c'", cmd)}, nil
	}
}

// readPathUntilMarker reads bytes into a path buffer until the next "?"
// marker. The length check runs before each read, matching the ground
// truth (serial.rs's read_request): once the buffer already holds
// maxPathLen bytes, it terminates without reading (or accepting) a
// further byte, so a path that reaches exactly maxPathLen bytes
// terminates rather than being accepted.
func readPathUntilMarker(br *bufio.Reader) (path string, terminated bool, err error) {
	buf := make([]byte, 0, maxPathLen)
	for {
		if len(buf) >= maxPathLen {
			return "", true, nil
		}
		b, rerr := br.ReadByte()
		if rerr != nil {
			return "", false, rerr
		}
		if b == '?' {
			return string(buf), false, nil
		}
		buf = append(buf, b)
	}
}
