package netguard

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.9", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::", false},
		{"::ffff:127.0.0.1", false},
		{"224.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(netip.MustParseAddr(tt.addr)))
		})
	}
	assert.False(t, Allowed(netip.Addr{}))
}

func TestControl(t *testing.T) {
	assert.NoError(t, Control("tcp4", "93.184.216.34:443", nil))
	assert.ErrorIs(t, Control("tcp4", "127.0.0.1:8080", nil), ErrBlocked)
	assert.ErrorIs(t, Control("tcp6", "[::1]:80", nil), ErrBlocked)
	assert.ErrorIs(t, Control("tcp4", "169.254.169.254:80", nil), ErrBlocked)
	assert.ErrorIs(t, Control("tcp", "no-port", nil), ErrBlocked)
}

func TestLiteralHostAllowed(t *testing.T) {
	assert.True(t, LiteralHostAllowed("example.com"))
	assert.True(t, LiteralHostAllowed("93.184.216.34"))
	assert.False(t, LiteralHostAllowed("localhost"))
	assert.False(t, LiteralHostAllowed("LOCALHOST."))
	assert.False(t, LiteralHostAllowed("api.localhost"))
	assert.False(t, LiteralHostAllowed("127.0.0.1"))
	assert.False(t, LiteralHostAllowed("[::1]"))
	assert.False(t, LiteralHostAllowed("169.254.169.254"))
}

func TestCheckURL_Literals(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, CheckURL(ctx, "https://93.184.216.34/doc", nil))
	assert.ErrorIs(t, CheckURL(ctx, "http://127.0.0.1:9000/", nil), ErrBlocked)
	assert.ErrorIs(t, CheckURL(ctx, "http://[::1]/", nil), ErrBlocked)
	assert.ErrorIs(t, CheckURL(ctx, "http://localhost/", nil), ErrBlocked)
	assert.Error(t, CheckURL(ctx, "http://%zz", nil))
}
