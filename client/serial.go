package client

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	goserial "github.com/daedaluz/goserial"
	"github.com/hostmux/muxd/clog"
)

// port is the subset of *goserial.Port the request loop and transmit path
// need. Abstracting it behind an interface, rather than depending on
// *goserial.Port directly, keeps the request-loop state machine testable
// against an in-memory pipe instead of a real character device.
type port interface {
	io.Reader
	io.Writer
	io.Closer
}

// openSerialPort opens devicePath in raw, non-canonical mode (8N1, no
// flow control) at the given baud rate, via the daedaluz/goserial
// termios/ioctl binding. Overridable in tests.
var openSerialPort = func(devicePath string, baud uint64) (port, error) {
	p, err := goserial.Open(devicePath, goserial.NewOptions())
	if err != nil {
		return nil, err
	}
	if err := p.MakeRaw(); err != nil {
		p.Close()
		return nil, err
	}
	speed, ok := baudFlag(baud)
	if !ok {
		p.Close()
		return nil, fmt.Errorf("unsupported baud rate %d", baud)
	}
	attrs, err := p.GetAttr()
	if err != nil {
		p.Close()
		return nil, err
	}
	attrs.SetSpeed(speed)
	if err := p.SetAttr(goserial.TCSANOW, attrs); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func baudFlag(baud uint64) (goserial.CFlag, bool) {
	switch baud {
	case 50:
		return goserial.B50, true
	case 300:
		return goserial.B300, true
	case 1200:
		return goserial.B1200, true
	case 2400:
		return goserial.B2400, true
	case 4800:
		return goserial.B4800, true
	case 9600:
		return goserial.B9600, true
	case 19200:
		return goserial.B19200, true
	case 38400:
		return goserial.B38400, true
	case 57600:
		return goserial.B57600, true
	case 115200:
		return goserial.B115200, true
	case 230400:
		return goserial.B230400, true
	case 460800:
		return goserial.B460800, true
	case 921600:
		return goserial.B921600, true
	default:
		return 0, false
	}
}

// SerialClient is one client talking over a character device: it owns a
// writable handle to the device, runs a background request loop for
// transmission requests arriving from the remote device, and exposes
// Event for controller-routed key presses.
type SerialClient struct {
	ctx  Context
	dev  port
	path string
	baud uint64

	locked atomic.Bool
}

func newSerialClient(ctx Context, devicePath string, baud uint64) (*SerialClient, error) {
	p, err := openSerialPort(devicePath, baud)
	if err != nil {
		clientLog.Fatalf("client %q: cannot open serial device %q for writing: %v", ctx.Name, devicePath, err)
	}
	return &SerialClient{ctx: ctx, dev: p, path: devicePath, baud: baud}, nil
}

func (c *SerialClient) Index() uint8 { return c.ctx.Index }
func (c *SerialClient) Name() string { return c.ctx.Name }

// Start spawns the background request loop. A Terminate request (§7:
// device protocol errors) aborts only this goroutine; clog.Recover keeps
// the panic from taking down the rest of the process.
func (c *SerialClient) Start() {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if fe, ok := clog.Recover(r); ok {
					clientLog.Error("client %q: terminated: %v", c.ctx.Name, fe)
					return
				}
			}
		}()
		c.requestLoop()
	}()
}

// Event writes the translated character and modifier byte to the device,
// unless a transmission currently holds the lock, in which case the
// event is dropped silently.
func (c *SerialClient) Event(data uint16) {
	if c.locked.Load() {
		return
	}
	buf := [2]byte{byte(data >> 8), byte(data & 0xFF)}
	if _, err := c.dev.Write(buf[:]); err != nil {
		clientLog.Error("client %q: event write failed: %v", c.ctx.Name, err)
	}
}

// request is a single decoded step of the remote-device request
// sub-protocol (§6): either a plain byte to echo, or one of the three
// "?"-prefixed requests.
type request struct {
	kind requestKind
	echo byte   // set for requestEcho
	path string // set for requestFile
	err  string // set for requestTerminate
}

type requestKind int

const (
	requestEcho requestKind = iota
	requestKernel
	requestFile
	requestTerminate
)

const maxPathLen = 128

func (c *SerialClient) requestLoop() {
	r, err := openSerialPort(c.path, c.baud)
	if err != nil {
		clientLog.Fatalf("client %q: cannot reopen serial device %q for reading: %v", c.ctx.Name, c.path, err)
	}
	br := bufio.NewReader(r)
	out := bufio.NewWriter(os.Stdout)

	for {
		req, err := readRequest(br)
		if err != nil {
			clientLog.Error("client %q: request read failed: %v", c.ctx.Name, err)
			return
		}
		switch req.kind {
		case requestTerminate:
			c.locked.Store(true)
			clientLog.Fatalf("client %q: %s", c.ctx.Name, req.err)
		case requestKernel:
			out.Flush()
			c.transmit(c.ctx.Binary)
		case requestFile:
			out.Flush()
			c.transmit(req.path)
		default:
			out.WriteByte(req.echo)
			out.Flush()
		}
	}
}

// transmit sends the 5-byte "!"+length header followed by the entirety
// of the file at srcPath, holding the lock for the duration. A failure
// to open srcPath is logged and the client keeps serving requests.
func (c *SerialClient) transmit(srcPath string) {
	c.locked.Store(true)
	defer c.locked.Store(false)

	f, err := os.Open(srcPath)
	if err != nil {
		clientLog.Error("client %q: cannot open %q for transmission: %v", c.ctx.Name, srcPath, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		clientLog.Error("client %q: cannot stat %q: %v", c.ctx.Name, srcPath, err)
		return
	}

	if _, err := c.dev.Write(transmitHeader(uint32(info.Size()))); err != nil {
		clientLog.Error("client %q: header write failed: %v", c.ctx.Name, err)
		return
	}
	if _, err := io.Copy(c.dev, f); err != nil {
		clientLog.Error("client %q: body write failed: %v", c.ctx.Name, err)
	}
}

// transmitHeader builds the 5-byte "!" + big-endian u32 length header
// for the serial transmit framing (§6). A pure function so its round
// trip (encode then decode recovers size, property #6) is directly
// testable.
func transmitHeader(size uint32) []byte {
	b := make([]byte, 5)
	b[0] = '!'
	binary.BigEndian.PutUint32(b[1:], size)
	return b
}

func decodeTransmitHeader(b []byte) (size uint32, ok bool) {
	if len(b) != 5 || b[0] != '!' {
		return 0, false
	}
	return binary.BigEndian.Uint32(b[1:]), true
}
