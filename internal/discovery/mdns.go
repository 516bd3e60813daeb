package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/klipmi/internal/logging"
)

const (
	// ServiceType is the service Moonraker's zeroconf component advertises
	ServiceType = "_moonraker._tcp"

	// HTTPServiceType is browsed for hosts that only advertise plain HTTP
	HTTPServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for printer discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is Moonraker's default API port
	DefaultPort = 7125
)

// Scanner handles mDNS printer discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every Moonraker instance that answers before the timeout.
// Both the Moonraker service and plain HTTP services whose name mentions
// moonraker are browsed.
func (s *Scanner) Scan(ctx context.Context) ([]*Printer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		printers []*Printer
		seen     = make(map[string]bool)
	)
	add := func(printer *Printer) {
		mu.Lock()
		defer mu.Unlock()
		if seen[printer.Host()] {
			return
		}
		seen[printer.Host()] = true
		printers = append(printers, printer)
		logging.Debug("Discovered Moonraker", zap.String("printer", printer.String()))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, service := range []string{ServiceType, HTTPServiceType} {
		service := service
		g.Go(func() error {
			return browse(gctx, service, add)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Printer(nil), printers...), nil
}

// browse feeds every accepted entry of one service type to add until ctx ends
func browse(ctx context.Context, service string, add func(*Printer)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if !accept(service, entry) {
				continue
			}
			if printer := parseServiceEntry(entry); printer != nil {
				add(printer)
			}
		}
	}()

	if err := resolver.Browse(ctx, service, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for %s: %w", service, err)
	}

	<-ctx.Done()
	// zeroconf closes entries once the browse context ends
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}

// accept filters plain HTTP advertisements down to Moonraker instances
func accept(service string, entry *zeroconf.ServiceEntry) bool {
	if entry == nil {
		return false
	}
	if service != HTTPServiceType {
		return true
	}
	name := strings.ToLower(entry.Instance + " " + entry.HostName)
	return strings.Contains(name, "moonraker")
}

// First returns the first printer that answers, or an error when none
// does before the timeout.
func (s *Scanner) First(ctx context.Context) (*Printer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Printer, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if printer := parseServiceEntry(entry); printer != nil {
				select {
				case found <- printer:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case printer := <-found:
		return printer, nil
	case <-ctx.Done():
		select {
		case printer := <-found:
			return printer, nil
		default:
		}
		return nil, fmt.Errorf("no Moonraker instance answered within %s", s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Printer.
// Entries without a usable address are dropped.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Printer {
	if entry == nil {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(entry.HostName, ".")
	}

	return &Printer{
		Name:         name,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
