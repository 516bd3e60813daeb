package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Printer is a Moonraker instance found on the network
type Printer struct {
	// Name is the mDNS instance name (e.g., "Moonraker Instance on voron")
	Name string

	// Hostname is the mDNS hostname (e.g., "voron.local.")
	Hostname string

	// IP is the address to connect to, IPv4 when one was advertised
	IP string

	// Port is the Moonraker API port (typically 7125)
	Port int

	// Metadata holds the TXT record fields
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the printer
func (p *Printer) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", p.Name, p.Hostname, p.IP, p.Port)
}

// Host returns the host:port pair for the Moonraker websocket
func (p *Printer) Host() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Printer) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}
