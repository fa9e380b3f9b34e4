package printer

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// Printer is the interface for sending raw ESC/POS data to a thermal printer.
type Printer interface {
	// Print sends raw ESC/POS bytes to the printer.
	Print(data []byte) error
	// IsConnected returns true if the printer can currently be reached.
	IsConnected() bool
}

// Config selects and addresses the receipt printer
type Config struct {
	Type    string // "usb", "network" or "none"
	USBPath string // e.g. /dev/usb/lp0
	Address string // e.g. 192.168.1.100:9100
	Timeout time.Duration
}

// USB printer, writes to a device file per job

type usbPrinter struct {
	path string
}

// NewUSBPrinter creates a printer that writes to a USB device file.
func NewUSBPrinter(devicePath string) Printer {
	return &usbPrinter{path: devicePath}
}

func (p *usbPrinter) Print(data []byte) error {
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

func (p *usbPrinter) IsConnected() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

// Network printer, dials TCP per job (raw port 9100)

type networkPrinter struct {
	address string
	timeout time.Duration
}

// NewNetworkPrinter creates a printer that connects via TCP.
func NewNetworkPrinter(address string, timeout time.Duration) Printer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &networkPrinter{
		address: address,
		timeout: timeout,
	}
}

func (p *networkPrinter) Print(data []byte) error {
	conn, err := net.DialTimeout("tcp", p.address, p.timeout)
	if err != nil {
		return fmt.Errorf("printer: failed to connect to %s: %w", p.address, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(2 * p.timeout))

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: failed to write to %s: %w", p.address, err)
	}
	return nil
}

func (p *networkPrinter) IsConnected() bool {
	conn, err := net.DialTimeout("tcp", p.address, p.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Null printer, used when no hardware is configured

type nullPrinter struct{}

// NewNullPrinter creates a no-op printer.
func NewNullPrinter() Printer {
	return nullPrinter{}
}

func (nullPrinter) Print([]byte) error { return nil }

func (nullPrinter) IsConnected() bool { return false }

// BufferPrinter keeps every job in memory. Useful for previews and tests.
type BufferPrinter struct {
	mu   sync.Mutex
	jobs [][]byte
	Err  error
}

// Print records the job, or fails with Err when set
func (p *BufferPrinter) Print(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	job := make([]byte, len(data))
	copy(job, data)
	p.jobs = append(p.jobs, job)
	return nil
}

// IsConnected always reports true
func (p *BufferPrinter) IsConnected() bool { return true }

// Jobs returns the recorded jobs
func (p *BufferPrinter) Jobs() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.jobs))
	copy(out, p.jobs)
	return out
}

// New creates the Printer matching cfg.Type.
func New(cfg Config) (Printer, error) {
	switch cfg.Type {
	case "usb":
		if cfg.USBPath == "" {
			return nil, fmt.Errorf("printer: USB path is required for USB printer type")
		}
		return NewUSBPrinter(cfg.USBPath), nil
	case "network":
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: address is required for network printer type")
		}
		return NewNetworkPrinter(cfg.Address, cfg.Timeout), nil
	case "none", "":
		return NewNullPrinter(), nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q (use usb, network, or none)", cfg.Type)
	}
}
