package core

import (
	"net"
	"time"
)

// LinkAddr is the link-layer endpoint a frame was received from.
type LinkAddr struct {
	Index        int // Interface index
	HardwareAddr net.HardwareAddr
}

// Frame is one captured link-layer frame. Data is owned by the holder and is
// never shared with the socket's receive buffer.
type Frame struct {
	Data      []byte
	Source    LinkAddr
	Timestamp time.Time
	Truncated bool // Frame filled the receive buffer and may have been cut
}
