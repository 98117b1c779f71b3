package controller

import (
	"time"

	"github.com/hostmux/muxd/clog"
	"github.com/hostmux/muxd/client"
	"github.com/hostmux/muxd/event"
)

var log = clog.New("controller")

// Controller runs the event loop (reading the HID source and translating
// reports) and the routing loop (delivering translated events to the
// client whose index matches the current target).
type Controller struct {
	cfg     Config
	clients map[uint8]client.Client
}

// New builds a Controller from cfg and the dense index-to-client map
// produced by client.All after Manager.Drain.
func New(cfg Config, clients map[uint8]client.Client) *Controller {
	log.LogMode(cfg.Verbose)
	return &Controller{cfg: cfg, clients: clients}
}

// Run starts the event-loop goroutine (pushing translated events onto an
// internal channel) and then runs the routing loop on the calling
// goroutine, per §5: the routing loop is the main-thread blocking point.
func (c *Controller) Run() {
	ch := make(chan uint32, 64)
	go c.eventLoop(ch)
	c.routeLoop(ch)
}

// eventLoop implements §4.F: open the source (retrying every
// ReopenDelaySeconds on failure), read fixed-width frames, translate
// each, and send the packed (target<<24)|(modifiers<<8)|character tuple.
func (c *Controller) eventLoop(ch chan<- uint32) {
	byID := c.cfg.eventByIdentifier()
	buf := make([]byte, c.cfg.Width)

	target := c.cfg.InitialTarget
	var modifiers uint8

	for {
		src, err := openSource(c.cfg.Source, c.cfg.Width)
		if err != nil {
			log.Warn("cannot open source %q: %v, retrying in %ds", c.cfg.Source, err, ReopenDelaySeconds)
			time.Sleep(ReopenDelaySeconds * time.Second)
			continue
		}

		for {
			if err := src.ReadFrame(buf); err != nil {
				log.Warn("source %q read failed: %v, reopening", c.cfg.Source, err)
				break
			}
			eventID := event.UnwrapSequence(buf, c.cfg.BytesEvent)
			ev, ok := byID[eventID]
			if !ok {
				if c.cfg.Verbose {
					log.Debug("no event registered for id %d", eventID)
				}
				continue
			}
			char, ok := ev.Translate(buf, &target, &modifiers, c.cfg.Verbose)
			if !ok {
				continue
			}
			combined := uint32(target)<<24 | uint32(modifiers)<<8 | uint32(char)
			ch <- combined
		}
		src.Close()
	}
}

// routeLoop consumes the internal channel, strips the high-order client
// index, and delivers the remaining 16-bit payload to that client.
func (c *Controller) routeLoop(ch <-chan uint32) {
	for combined := range ch {
		index := uint8(combined >> 24)
		payload := uint16(combined & 0xFFFF)
		cl, ok := c.clients[index]
		if !ok {
			log.Warn("no client registered at index %d, dropping event", index)
			continue
		}
		cl.Event(payload)
	}
}
