package controller

import (
	"encoding/binary"
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"
)

// evdevSource reads real Linux input_event records from Source and
// repacks type/code/value into the width-byte report buffer the rest of
// the pipeline's byte-offset rules already expect: bytes 0-1 are the
// event type (big-endian), bytes 2-3 the event code, byte 4 the value
// truncated to a single byte (sufficient for key up/down/repeat, the
// only values this system's translation rules threshold against). Any
// remaining bytes up to width are zero.
type evdevSource struct {
	dev *evdev.InputDevice
}

func openEvdevSource(path string, width int) (frameSource, error) {
	if width < 5 {
		return nil, fmt.Errorf("evdev source requires width >= 5 bytes, got %d", width)
	}
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return &evdevSource{dev: dev}, nil
}

func (s *evdevSource) ReadFrame(buf []byte) error {
	ev, err := s.dev.ReadOne()
	if err != nil {
		return err
	}
	for i := range buf {
		buf[i] = 0
	}
	binary.BigEndian.PutUint16(buf[0:2], ev.Type)
	binary.BigEndian.PutUint16(buf[2:4], ev.Code)
	buf[4] = byte(ev.Value)
	return nil
}

func (s *evdevSource) Close() error {
	return s.dev.Close()
}
