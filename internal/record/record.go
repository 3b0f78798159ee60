// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package record extracts structured LogRecord and ControlCommand
// values from one line of an NCSA-combined access log, and recognizes
// the tail-source's "==> path <==" file-switch markers.
package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LogRecord is one parsed access-log line. It is immutable after
// construction; only its contributions to hit counters and the
// violation queue persist past one evaluation pass.
type LogRecord struct {
	File      string
	LogLine   string
	Client    string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM:SS
	Sec       int    // seconds-of-day
	TZ        string
	Method    string
	URL       string
	Protocol  string
	Status    string
	Bytes     string
	Referrer  string
	UserAgent string
}

// ControlCommand is produced by a "*NAME [k=v ...]" line on the input
// stream and routed to a built-in or user-defined action.
type ControlCommand struct {
	Name string
	Args map[string]string
}

var monthNum = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// ncsaCombined matches: client ident authuser [date:time tz] "request" status bytes ["referrer" "ua"]
var ncsaCombined = regexp.MustCompile(
	`^(\S+) \S+ \S+ \[(\d+)/(\w+)/(\d+):(\d+):(\d+):(\d+) ([^\]]+)\] "([^"]*)" (\d\d\d) (\S+)(?: "([^"]*)" "([^"]*)")?`,
)

var fileSwitchRe = regexp.MustCompile(`^==> (.+) <==$`)

var controlLineRe = regexp.MustCompile(`^\*([A-Z]+)(?:\s+(.+))?$`)

// Kind classifies one line of the input stream.
type Kind int

const (
	KindIgnored Kind = iota
	KindFileSwitch
	KindControl
	KindRecord
)

// Classify inspects one raw line and reports what it is. For
// KindFileSwitch the caller must discard the next line read from the
// stream (the tail-source emits one separator line after the marker)
// before resuming normal processing. For KindRecord/KindControl the
// corresponding *LogRecord/*ControlCommand is returned.
func Classify(currentFile, line string) (kind Kind, rec *LogRecord, ctrl *ControlCommand, newFile string) {
	if m := fileSwitchRe.FindStringSubmatch(line); m != nil {
		return KindFileSwitch, nil, nil, m[1]
	}

	if m := controlLineRe.FindStringSubmatch(line); m != nil {
		return KindControl, nil, parseControlArgs(m[1], m[2]), currentFile
	}

	if rec, ok := ParseRecord(currentFile, line); ok {
		return KindRecord, rec, nil, currentFile
	}

	return KindIgnored, nil, nil, currentFile
}

func parseControlArgs(name, rest string) *ControlCommand {
	cmd := &ControlCommand{Name: name, Args: make(map[string]string)}
	for _, tok := range strings.Fields(rest) {
		if k, v, ok := strings.Cut(tok, "="); ok {
			cmd.Args[k] = v
		} else {
			cmd.Args[tok] = ""
		}
	}
	return cmd
}

// ParseRecord extracts a LogRecord from one NCSA-combined log line. A
// line that doesn't match the format returns ok=false; malformed log
// lines are always silently dropped, never an error, per the stream's
// untrusted/noisy nature.
func ParseRecord(file, line string) (*LogRecord, bool) {
	m := ncsaCombined.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	day, monthName, year := m[2], m[3], m[4]
	hh, mm, ss := m[5], m[6], m[7]
	month, ok := monthNum[monthName]
	if !ok {
		return nil, false
	}
	if len(day) == 1 {
		day = "0" + day
	}

	h, _ := strconv.Atoi(hh)
	mi, _ := strconv.Atoi(mm)
	se, _ := strconv.Atoi(ss)

	rec := &LogRecord{
		File:      file,
		LogLine:   line,
		Client:    m[1],
		Date:      fmt.Sprintf("%s-%s-%s", year, month, day),
		Time:      fmt.Sprintf("%02d:%02d:%02d", h, mi, se),
		Sec:       h*3600 + mi*60 + se,
		TZ:        m[8],
		Status:    m[10],
		Bytes:     m[11],
		Referrer:  m[12],
		UserAgent: m[13],
	}

	method, url, proto, ok := splitRequest(m[9])
	if ok {
		rec.Method, rec.URL, rec.Protocol = method, url, proto
	} else {
		rec.URL = m[9]
	}

	return rec, true
}

func splitRequest(req string) (method, url, proto string, ok bool) {
	parts := strings.Fields(req)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
