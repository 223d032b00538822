package dataset

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"go4.org/netipx"

	"github.com/Sumatoshi-tech/intervalidx/pkg/alg/interval"
)

// Kind selects how textual endpoints map onto int64 keys.
type Kind string

// Supported endpoint kinds.
const (
	// KindInt stores decimal integers as-is.
	KindInt Kind = "int"
	// KindIPv4 stores IPv4 addresses as their 32-bit big-endian value.
	KindIPv4 Kind = "ipv4"
	// KindTime stores RFC 3339 timestamps as Unix seconds.
	KindTime Kind = "time"
)

// ParseKind validates a kind name. Empty means KindInt.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case "":
		return KindInt, nil
	case KindInt, KindIPv4, KindTime:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// ParseEndpoint converts one textual endpoint of the given kind.
func ParseEndpoint(kind Kind, s string) (int64, error) {
	s = strings.TrimSpace(s)

	switch kind {
	case KindInt, "":
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidEndpoint, s)
		}

		return v, nil
	case KindIPv4:
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, s, err)
		}

		return ipv4Key(addr)
	case KindTime:
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, s, err)
		}

		return ts.Unix(), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// FormatEndpoint is the inverse of ParseEndpoint.
func FormatEndpoint(kind Kind, v int64) string {
	switch kind {
	case KindIPv4:
		var raw [4]byte

		binary.BigEndian.PutUint32(raw[:], uint32(v))

		return netip.AddrFrom4(raw).String()
	case KindTime:
		return time.Unix(v, 0).UTC().Format(time.RFC3339)
	default:
		return strconv.FormatInt(v, 10)
	}
}

// ParseInterval builds an interval from two textual endpoints.
func ParseInterval(kind Kind, from, to string) (interval.Interval[int64], error) {
	lo, err := ParseEndpoint(kind, from)
	if err != nil {
		return interval.Interval[int64]{}, err
	}

	hi, err := ParseEndpoint(kind, to)
	if err != nil {
		return interval.Interval[int64]{}, err
	}

	return interval.NewInterval(lo, hi)
}

// ParseRange parses an IPv4 range written as a CIDR prefix ("10.0.0.0/24")
// or as an inclusive span ("10.0.0.1-10.0.0.9").
func ParseRange(s string) (interval.Interval[int64], error) {
	s = strings.TrimSpace(s)

	var ipRange netipx.IPRange

	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return interval.Interval[int64]{}, fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, s, err)
		}

		ipRange = netipx.RangeOfPrefix(prefix.Masked())
	} else {
		parsed, err := netipx.ParseIPRange(s)
		if err != nil {
			return interval.Interval[int64]{}, fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, s, err)
		}

		ipRange = parsed
	}

	lo, err := ipv4Key(ipRange.From())
	if err != nil {
		return interval.Interval[int64]{}, err
	}

	hi, err := ipv4Key(ipRange.To())
	if err != nil {
		return interval.Interval[int64]{}, err
	}

	return interval.NewInterval(lo, hi)
}

// FormatInterval renders iv in the notation of kind, e.g. "10.0.0.0-10.0.0.255".
func FormatInterval(kind Kind, iv interval.Interval[int64]) string {
	return FormatEndpoint(kind, iv.From()) + "-" + FormatEndpoint(kind, iv.To())
}

func ipv4Key(addr netip.Addr) (int64, error) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, fmt.Errorf("%w: %s is not an IPv4 address", ErrInvalidEndpoint, addr)
	}

	raw := addr.As4()

	return int64(binary.BigEndian.Uint32(raw[:])), nil
}
