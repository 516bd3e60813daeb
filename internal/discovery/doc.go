// Package discovery finds Moonraker instances on the local network.
//
// Moonraker's zeroconf component advertises the "_moonraker._tcp" service.
// The scanner browses for it over multicast DNS and turns each answer into
// a Printer carrying the address, port and TXT record fields.
//
// # Usage Example
//
//	printers, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, p := range printers {
//	    fmt.Println(p)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The printer host must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
// - Moonraker must have [zeroconf] enabled in moonraker.conf
package discovery
