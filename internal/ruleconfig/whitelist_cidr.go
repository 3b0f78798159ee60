// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ruleconfig

import (
	"net/netip"
	"strings"

	"grimm.is/logvigil/internal/errors"
)

// parseWhitelistCIDR parses one whitelist entry token into a prefix.
// An "ipv6="/"ipv4=" prefix forces the address family explicitly;
// otherwise the presence of ':' decides. A bare address with no
// prefix length is treated as a /32 (v4) or /128 (v6) host route.
func parseWhitelistCIDR(tok string) (netip.Prefix, error) {
	raw := tok
	switch {
	case strings.HasPrefix(raw, "ipv6="):
		raw = strings.TrimPrefix(raw, "ipv6=")
	case strings.HasPrefix(raw, "ipv4="):
		raw = strings.TrimPrefix(raw, "ipv4=")
	}

	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, errors.Wrapf(err, errors.KindConfig, "invalid whitelist CIDR %q", tok)
		}
		return p, nil
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, errors.Wrapf(err, errors.KindConfig, "invalid whitelist address %q", tok)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
