package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    Kind
		wantErr bool
	}{
		"empty defaults to int": {input: "", want: KindInt},
		"int":                   {input: "int", want: KindInt},
		"mixed case":            {input: " IPv4 ", want: KindIPv4},
		"time":                  {input: "time", want: KindTime},
		"unknown":               {input: "float", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseKind(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownKind)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		kind    Kind
		input   string
		want    int64
		wantErr bool
	}{
		"int":             {kind: KindInt, input: "42", want: 42},
		"negative int":    {kind: KindInt, input: "-7", want: -7},
		"bad int":         {kind: KindInt, input: "4x", wantErr: true},
		"ipv4":            {kind: KindIPv4, input: "10.0.0.1", want: 10<<24 | 1},
		"ipv4 max":        {kind: KindIPv4, input: "255.255.255.255", want: 1<<32 - 1},
		"ipv4-mapped v6":  {kind: KindIPv4, input: "::ffff:10.0.0.1", want: 10<<24 | 1},
		"ipv6 rejected":   {kind: KindIPv4, input: "2001:db8::1", wantErr: true},
		"time":            {kind: KindTime, input: "2024-03-01T12:00:00Z", want: ts.Unix()},
		"time with zone":  {kind: KindTime, input: "2024-03-01T13:00:00+01:00", want: ts.Unix()},
		"bad time":        {kind: KindTime, input: "yesterday", wantErr: true},
		"empty is not ok": {kind: KindInt, input: "", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEndpoint(tt.kind, tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidEndpoint)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatEndpoint_RoundTrip(t *testing.T) {
	t.Parallel()

	for kind, text := range map[Kind]string{
		KindInt:  "-15",
		KindIPv4: "192.168.1.20",
		KindTime: "2023-11-05T08:30:00Z",
	} {
		v, err := ParseEndpoint(kind, text)
		require.NoError(t, err)
		assert.Equal(t, text, FormatEndpoint(kind, v), "kind %s", kind)
	}
}

func TestParseInterval_Reversed(t *testing.T) {
	t.Parallel()

	_, err := ParseInterval(KindInt, "9", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from cannot be greater than to")
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input    string
		wantFrom string
		wantTo   string
	}{
		"cidr":             {input: "10.0.0.0/24", wantFrom: "10.0.0.0", wantTo: "10.0.0.255"},
		"unmasked cidr":    {input: "10.0.0.77/30", wantFrom: "10.0.0.76", wantTo: "10.0.0.79"},
		"single host cidr": {input: "172.16.0.1/32", wantFrom: "172.16.0.1", wantTo: "172.16.0.1"},
		"span":             {input: "10.0.0.128-10.0.1.15", wantFrom: "10.0.0.128", wantTo: "10.0.1.15"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			iv, err := ParseRange(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, FormatEndpoint(KindIPv4, iv.From()))
			assert.Equal(t, tt.wantTo, FormatEndpoint(KindIPv4, iv.To()))
		})
	}
}

func TestParseRange_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"10.0.0.0/33", "10.0.0.9-10.0.0.1", "nonsense", "2001:db8::/64"} {
		_, err := ParseRange(input)
		assert.Error(t, err, input)
	}
}

func TestFormatInterval(t *testing.T) {
	t.Parallel()

	iv, err := ParseRange("10.0.0.0/31")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0-10.0.0.1", FormatInterval(KindIPv4, iv))
}
