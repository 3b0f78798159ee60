// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"net"
	"time"

	"grimm.is/logvigil/internal/errors"
)

// SyslogConfig configures the remote syslog sink attached when -s is given.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string // "udp" or "tcp"
	Tag      string
	Facility int
}

// DefaultSyslogConfig returns the zero-value-safe defaults.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "logvigil",
		Facility: 1,
	}
}

// SyslogWriter is an io.WriteCloser that frames each Write as one RFC
// 3164 syslog line and sends it over a dialed UDP or TCP connection.
type SyslogWriter struct {
	conn     net.Conn
	tag      string
	facility int
}

// NewSyslogWriter dials the configured syslog collector. Port,
// Protocol and Tag are defaulted when left zero.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, errors.New(errors.KindConfig, "syslog: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "logvigil"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := net.DialTimeout(cfg.Protocol, addr, 5*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindIO, "syslog: dial failed")
	}

	return &SyslogWriter{conn: conn, tag: cfg.Tag, facility: cfg.Facility}, nil
}

// Write implements io.Writer; p is one formatted log line without a
// trailing priority/timestamp/tag, which this method adds per RFC 3164.
func (w *SyslogWriter) Write(p []byte) (int, error) {
	pri := w.facility*8 + 6 // severity fixed at "info" (6); level is already in the message text
	line := fmt.Sprintf("<%d>%s %s: %s", pri, time.Now().Format(time.Stamp), w.tag, p)
	if _, err := w.conn.Write([]byte(line)); err != nil {
		return 0, errors.Wrap(err, errors.KindIO, "syslog: write failed")
	}
	return len(p), nil
}

// Close closes the underlying connection.
func (w *SyslogWriter) Close() error {
	return w.conn.Close()
}
