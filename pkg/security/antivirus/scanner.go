package antivirus

import (
	"context"
	"errors"
)

// ErrUnavailable is set on results when no scanner could run.
var ErrUnavailable = errors.New("antivirus: no scanner available")

type ScanResult struct {
	Infected    bool
	ThreatName  string
	ScannerName string
	// Err is set when the scan could not complete. Such results are
	// reported as infected.
	Err error
}

// Scanner checks uploaded documents for malware.
type Scanner interface {
	Scan(ctx context.Context, filename string, data []byte) ScanResult
	Name() string
}

// NoOpScanner reports every file clean. Used when no clamd is configured.
type NoOpScanner struct{}

var _ Scanner = NoOpScanner{}

func (NoOpScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	return ScanResult{ScannerName: "noop"}
}

func (NoOpScanner) Name() string {
	return "noop"
}
