// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import "testing"

func TestParseArgs_ConfigAndDefine(t *testing.T) {
	opts, err := parseArgs([]string{"-c", "/etc/a.conf", "--config-file=/etc/b.conf", "-D", "threshold=9"})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if len(opts.configFiles) != 2 {
		t.Errorf("configFiles = %v", opts.configFiles)
	}
	if opts.defines["threshold"] != "9" {
		t.Errorf("defines = %v", opts.defines)
	}
}

func TestParseArgs_BooleanFlags(t *testing.T) {
	opts, err := parseArgs([]string{"-n", "-t", "-d"})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if !opts.dryRun || !opts.checkConfig || !opts.debug || !opts.verbose {
		t.Errorf("opts = %+v", opts)
	}
}

func TestParseArgs_PositionalLogFiles(t *testing.T) {
	opts, err := parseArgs([]string{"/var/log/a.log", "/var/log/b.log"})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if len(opts.logFiles) != 2 {
		t.Errorf("logFiles = %v", opts.logFiles)
	}
}

func TestParseArgs_UnknownOption(t *testing.T) {
	if _, err := parseArgs([]string{"--bogus"}); err == nil {
		t.Error("expected error for unknown option")
	}
}

func TestParseArgs_MissingValue(t *testing.T) {
	if _, err := parseArgs([]string{"-c"}); err == nil {
		t.Error("expected error for missing value")
	}
}
