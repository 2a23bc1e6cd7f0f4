package antivirus

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"time"
)

// clamd rejects INSTREAM chunks above StreamMaxLength; 1MB is well below the
// default 25MB.
const chunkSize = 1 << 20

// ClamAVScanner streams files to clamd with the zINSTREAM command.
type ClamAVScanner struct {
	address string // host:port or an absolute unix socket path
	timeout time.Duration
}

var _ Scanner = (*ClamAVScanner)(nil)

func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{address: address, timeout: timeout}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

func (c *ClamAVScanner) network() string {
	if strings.HasPrefix(c.address, "/") {
		return "unix"
	}
	return "tcp"
}

// Scan fails closed: any transport or protocol error marks the file infected.
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	result := ScanResult{ScannerName: c.Name()}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, c.network(), c.address)
	if err != nil {
		result.Infected = true
		result.Err = fmt.Errorf("connect to clamd: %w", err)
		return result
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := writeStream(conn, data); err != nil {
		result.Infected = true
		result.Err = err
		return result
	}

	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && reply == "" {
		result.Infected = true
		result.Err = fmt.Errorf("read clamd reply: %w", err)
		return result
	}
	return parseReply(result, strings.TrimRight(reply, "\x00\n "))
}

func writeStream(conn net.Conn, data []byte) error {
	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	size := make([]byte, 4)
	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		binary.BigEndian.PutUint32(size, uint32(end-start))
		if _, err := conn.Write(size); err != nil {
			return fmt.Errorf("send chunk size: %w", err)
		}
		if _, err := conn.Write(data[start:end]); err != nil {
			return fmt.Errorf("send chunk: %w", err)
		}
	}

	if _, err := conn.Write([]byte{0, 0, 0, 0}); err != nil {
		return fmt.Errorf("send end of stream: %w", err)
	}
	return nil
}

// parseReply reads "stream: OK", "stream: <name> FOUND" or "... ERROR".
func parseReply(result ScanResult, reply string) ScanResult {
	switch {
	case strings.HasSuffix(reply, "FOUND"):
		result.Infected = true
		if _, threat, ok := strings.Cut(reply, ":"); ok {
			result.ThreatName = strings.TrimSpace(strings.TrimSuffix(threat, "FOUND"))
		}
	case strings.HasSuffix(reply, "OK"):
	default:
		result.Infected = true
		result.Err = fmt.Errorf("clamd: %s", reply)
	}
	return result
}
