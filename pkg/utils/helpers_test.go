package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDomain(t *testing.T) {
	valid := []string{"example.com", "sub.example.com", "a-b.example.co.uk", "xn--bcher-kva.example"}
	for _, d := range valid {
		assert.True(t, IsValidDomain(d), d)
	}

	invalid := []string{"", "-bad.example.com", "bad-.example.com", "ex ample.com", "example..com"}
	for _, d := range invalid {
		assert.False(t, IsValidDomain(d), d)
	}
}

func TestIsValidIP(t *testing.T) {
	assert.True(t, IsValidIP("10.0.0.1"))
	assert.True(t, IsValidIP("2001:db8::1"))
	assert.False(t, IsValidIP("300.0.0.1"))
	assert.False(t, IsValidIP("example.com"))
}

func TestNormalizeDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Example.COM", "example.com"},
		{"example.com.", "example.com"},
		{"  sub.example.org ", "sub.example.org"},
		{"exämple.com", "xn--exmple-cua.com"},
	}
	for _, tc := range cases {
		got, err := NormalizeDomain(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNormalizeDomain_Rejects(t *testing.T) {
	bad := []string{"", "com", "co.uk", "not a domain", "-bad.example.com"}
	for _, d := range bad {
		_, err := NormalizeDomain(d)
		assert.Error(t, err, d)
	}
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "1.50s", HumanizeDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 5s", HumanizeDuration(2*time.Minute+5*time.Second))
	assert.Equal(t, "3h 20m", HumanizeDuration(3*time.Hour+20*time.Minute))
	assert.Equal(t, "2d 6h", HumanizeDuration(54*time.Hour))
}
