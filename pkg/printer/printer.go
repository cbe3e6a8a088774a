// Package printer is the transport layer: it moves a composed ESC/POS byte
// stream to the physical device. There is no acknowledgment channel on raw
// port 9100 printing; "success" means the bytes were handed to the network
// stack, not that paper came out.
package printer

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// Printer sends raw ESC/POS data to a thermal printer.
type Printer interface {
	// Print sends raw ESC/POS bytes to the printer. Concurrent calls are
	// serialized so two jobs never interleave on the wire.
	Print(data []byte) error
	// Close releases the printer connection/handle.
	Close() error
	// IsConnected returns true if the printer is reachable.
	IsConnected() bool
}

// Config selects and tunes the transport.
type Config struct {
	Type        string // "network", "usb" or "none"
	Address     string // TCP address for network printers, e.g. "192.168.1.50:9100"
	USBPath     string // device file for USB printers, e.g. "/dev/usb/lp0"
	DialTimeout time.Duration
	DrainDelay  time.Duration // pause after writing so the input buffer empties before close
}

// New creates the appropriate Printer for the configuration.
func New(cfg Config) (Printer, error) {
	switch cfg.Type {
	case "network":
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: address is required for network printer type")
		}
		return newNetworkPrinter(cfg), nil
	case "usb":
		if cfg.USBPath == "" {
			return nil, fmt.Errorf("printer: USB path is required for USB printer type")
		}
		return &usbPrinter{path: cfg.USBPath}, nil
	case "none", "":
		return NewNullPrinter(), nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q (use network, usb, or none)", cfg.Type)
	}
}

// --- Network printer (raw port 9100 "direct IP printing") ---

type networkPrinter struct {
	mu          sync.Mutex
	address     string
	dialTimeout time.Duration
	drainDelay  time.Duration
}

func newNetworkPrinter(cfg Config) *networkPrinter {
	p := &networkPrinter{
		address:     cfg.Address,
		dialTimeout: cfg.DialTimeout,
		drainDelay:  cfg.DrainDelay,
	}
	if p.dialTimeout <= 0 {
		p.dialTimeout = 5 * time.Second
	}
	if p.drainDelay <= 0 {
		p.drainDelay = 120 * time.Millisecond
	}
	return p
}

func (p *networkPrinter) Print(data []byte) error {
	// The physical printer is a single shared device; the mutex keeps
	// concurrent jobs from interleaving their byte streams.
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := net.DialTimeout("tcp", p.address, p.dialTimeout)
	if err != nil {
		return fmt.Errorf("printer: failed to connect to %s: %w", p.address, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: failed to write to %s: %w", p.address, err)
	}

	// Let the printer's input buffer drain before the socket closes;
	// some firmwares drop the tail of the stream otherwise.
	time.Sleep(p.drainDelay)
	return nil
}

func (p *networkPrinter) Close() error {
	return nil // connections are opened and closed per print job
}

func (p *networkPrinter) IsConnected() bool {
	conn, err := net.DialTimeout("tcp", p.address, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// --- USB printer (writes to a device file, e.g. /dev/usb/lp0) ---

type usbPrinter struct {
	mu   sync.Mutex
	path string
}

func (p *usbPrinter) Print(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: failed to open USB device %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("printer: failed to write to USB device %s: %w", p.path, err)
	}
	return nil
}

func (p *usbPrinter) Close() error {
	return nil
}

func (p *usbPrinter) IsConnected() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

// --- Null printer (no-op, used when no hardware is configured) ---

type nullPrinter struct{}

// NewNullPrinter creates a no-op printer for environments without hardware.
func NewNullPrinter() Printer {
	return &nullPrinter{}
}

func (p *nullPrinter) Print(data []byte) error { return nil }
func (p *nullPrinter) Close() error            { return nil }
func (p *nullPrinter) IsConnected() bool       { return false }
