// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package record

import "testing"

const sampleLine = `203.0.113.9 - - [14/Feb/2026:08:30:05 -0500] "GET /wp-login.php HTTP/1.1" 404 512 "-" "curl/8.0"`

func TestParseRecord(t *testing.T) {
	rec, ok := ParseRecord("/var/log/access.log", sampleLine)
	if !ok {
		t.Fatalf("ParseRecord() ok = false, want true")
	}

	if rec.Client != "203.0.113.9" {
		t.Errorf("Client = %q", rec.Client)
	}
	if rec.Date != "2026-02-14" {
		t.Errorf("Date = %q", rec.Date)
	}
	if rec.Time != "08:30:05" {
		t.Errorf("Time = %q", rec.Time)
	}
	if want := 8*3600 + 30*60 + 5; rec.Sec != want {
		t.Errorf("Sec = %d, want %d", rec.Sec, want)
	}
	if rec.TZ != "-0500" {
		t.Errorf("TZ = %q", rec.TZ)
	}
	if rec.Method != "GET" || rec.URL != "/wp-login.php" || rec.Protocol != "HTTP/1.1" {
		t.Errorf("request split = %q %q %q", rec.Method, rec.URL, rec.Protocol)
	}
	if rec.Status != "404" || rec.Bytes != "512" {
		t.Errorf("Status/Bytes = %q %q", rec.Status, rec.Bytes)
	}
	if rec.UserAgent != "curl/8.0" {
		t.Errorf("UserAgent = %q", rec.UserAgent)
	}
	if rec.File != "/var/log/access.log" || rec.LogLine != sampleLine {
		t.Errorf("File/LogLine not preserved")
	}
}

func TestParseRecord_SingleDigitDay(t *testing.T) {
	line := `198.51.100.2 - - [4/Mar/2026:00:00:00 +0000] "GET / HTTP/1.1" 200 10`
	rec, ok := ParseRecord("f", line)
	if !ok {
		t.Fatalf("ParseRecord() ok = false")
	}
	if rec.Date != "2026-03-04" {
		t.Errorf("Date = %q, want 2026-03-04", rec.Date)
	}
}

func TestParseRecord_MalformedRequest(t *testing.T) {
	line := `198.51.100.2 - - [4/Mar/2026:00:00:00 +0000] "GARBAGE" 200 10`
	rec, ok := ParseRecord("f", line)
	if !ok {
		t.Fatalf("ParseRecord() ok = false")
	}
	if rec.URL != "GARBAGE" || rec.Method != "" {
		t.Errorf("fallback URL = %q method = %q", rec.URL, rec.Method)
	}
}

func TestParseRecord_NoMatch(t *testing.T) {
	if _, ok := ParseRecord("f", "not a log line"); ok {
		t.Errorf("ParseRecord() ok = true, want false")
	}
}

func TestParseRecord_UnknownMonth(t *testing.T) {
	line := `1.2.3.4 - - [4/Xxx/2026:00:00:00 +0000] "GET / HTTP/1.1" 200 10`
	if _, ok := ParseRecord("f", line); ok {
		t.Errorf("ParseRecord() ok = true for unknown month, want false")
	}
}

func TestClassify_FileSwitch(t *testing.T) {
	kind, _, _, newFile := Classify("/old.log", "==> /var/log/new.log <==")
	if kind != KindFileSwitch {
		t.Fatalf("kind = %v, want KindFileSwitch", kind)
	}
	if newFile != "/var/log/new.log" {
		t.Errorf("newFile = %q", newFile)
	}
}

func TestClassify_Control(t *testing.T) {
	kind, _, ctrl, _ := Classify("f", "*HUP reason=reload")
	if kind != KindControl {
		t.Fatalf("kind = %v, want KindControl", kind)
	}
	if ctrl.Name != "HUP" || ctrl.Args["reason"] != "reload" {
		t.Errorf("ctrl = %+v", ctrl)
	}
}

func TestClassify_ControlNoArgs(t *testing.T) {
	kind, _, ctrl, _ := Classify("f", "*FLUSH")
	if kind != KindControl {
		t.Fatalf("kind = %v, want KindControl", kind)
	}
	if ctrl.Name != "FLUSH" || len(ctrl.Args) != 0 {
		t.Errorf("ctrl = %+v", ctrl)
	}
}

func TestClassify_Record(t *testing.T) {
	kind, rec, _, _ := Classify("f", sampleLine)
	if kind != KindRecord {
		t.Fatalf("kind = %v, want KindRecord", kind)
	}
	if rec.Client != "203.0.113.9" {
		t.Errorf("rec.Client = %q", rec.Client)
	}
}

func TestClassify_Ignored(t *testing.T) {
	kind, _, _, _ := Classify("f", "")
	if kind != KindIgnored {
		t.Errorf("kind = %v, want KindIgnored", kind)
	}
}
