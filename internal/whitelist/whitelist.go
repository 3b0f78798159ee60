// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package whitelist implements CIDR-set membership over IPv4 and IPv6
// addresses, tagged by class label, with a per-client cache and a
// hard-coded silent whitelist for loopback addresses.
package whitelist

import (
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// silentAddrs short-circuits evaluation entirely: a match here
// suppresses even the whitelist-hit log message.
var silentAddrs = map[string]struct{}{
	"127.0.0.1": {},
	"::1":       {},
}

// Entry is one `whitelist { ... }` block: a set of CIDRs sharing a
// class label. A config may declare several entries with the same or
// differing classes.
type Entry struct {
	Class string
	CIDRs []netip.Prefix
}

// Set is the compiled union of every whitelist entry in a ruleset.
// Lookup returns the union of class labels across every entry whose
// span contains the address, which is why this is built from one
// IPSet per class rather than a single longest-prefix-match trie.
type Set struct {
	classSets map[string]*netipx.IPSet
	cache     map[string][]string
}

// Builder accumulates CIDRs by class before compiling a Set.
type Builder struct {
	byClass map[string]*netipx.IPSetBuilder
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byClass: make(map[string]*netipx.IPSetBuilder)}
}

// Add registers one CIDR under the given class label (defaulting to
// "whitelisted" by convention of the caller).
func (b *Builder) Add(prefix netip.Prefix, class string) {
	ib, ok := b.byClass[class]
	if !ok {
		ib = &netipx.IPSetBuilder{}
		b.byClass[class] = ib
	}
	ib.AddPrefix(prefix)
}

// Build compiles the accumulated CIDRs into a queryable Set.
func (b *Builder) Build() (*Set, error) {
	s := &Set{
		classSets: make(map[string]*netipx.IPSet, len(b.byClass)),
		cache:     make(map[string][]string),
	}
	for class, ib := range b.byClass {
		ipset, err := ib.IPSet()
		if err != nil {
			return nil, err
		}
		s.classSets[class] = ipset
	}
	return s, nil
}

// looksNumeric reports whether client could plausibly be an IPv4 or
// IPv6 address literal: it must contain no character in [G-Zg-z].
// Anything else (hostnames, "-") skips whitelist evaluation entirely.
func looksNumeric(client string) bool {
	return !strings.ContainsAny(client, "GHIJKLMNOPQRSTUVWXYZghijklmnopqrstuvwxyz")
}

// IsSilent reports whether client matches the hard-coded silent
// whitelist (loopback). A silent match must short-circuit before any
// other evaluation and produce no log output.
func IsSilent(client string) bool {
	_, ok := silentAddrs[client]
	return ok
}

// Classes reports the union of class labels across every whitelist
// entry whose span contains client, and whether any matched at all.
// Non-numeric clients never match. Results are cached per client.
func (s *Set) Classes(client string) ([]string, bool) {
	if !looksNumeric(client) {
		return nil, false
	}

	if cached, ok := s.cache[client]; ok {
		return cached, len(cached) > 0
	}

	addr, err := netip.ParseAddr(client)
	if err != nil {
		s.cache[client] = nil
		return nil, false
	}

	var classes []string
	for class, ipset := range s.classSets {
		if ipset.Contains(addr) {
			classes = append(classes, class)
		}
	}

	s.cache[client] = classes
	return classes, len(classes) > 0
}

// ClearCache discards memoized per-client lookups. Called on the
// date/timezone-rollover CLEAR event alongside the hit counter reset.
func (s *Set) ClearCache() {
	s.cache = make(map[string][]string)
}
