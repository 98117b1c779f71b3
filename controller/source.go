package controller

import (
	"io"
	"os"
)

// frameSource yields fixed-width reports one at a time. openSource tries
// an evdev binding first and falls back to a plain file, so the same
// Config works whether Source names a real /dev/input/event* node or a
// synthetic pre-framed byte stream (tests, or a non-Linux target).
type frameSource interface {
	ReadFrame(buf []byte) error
	Close() error
}

func openSource(path string, width int) (frameSource, error) {
	if s, err := openEvdevSource(path, width); err == nil {
		return s, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileSource{f: f}, nil
}

// fileSource reads pre-framed width-byte reports directly, the
// distilled spec's original HID source contract.
type fileSource struct {
	f *os.File
}

func (s *fileSource) ReadFrame(buf []byte) error {
	_, err := io.ReadFull(s.f, buf)
	return err
}

func (s *fileSource) Close() error { return s.f.Close() }
