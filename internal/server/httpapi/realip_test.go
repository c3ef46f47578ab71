package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signInFrom posts bad credentials to /signin with the given forwarding
// header and returns the status code.
func signInFrom(t *testing.T, api *testAPI, forwardedFor string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, api.srv.URL+"/signin",
		strings.NewReader(`{"email":"nobody@example.com","password":"pw"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)

	resp, err := api.client(t).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestAuthRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.AuthRatePerMinute = 2 })

	var codes []int
	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "203.0.113.4"} {
		codes = append(codes, signInFrom(t, api, ip))
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)

	api.usage.Wait()
	entries := api.store.UsageEntries()
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, "127.0.0.1", e.IPAddress)
	}
}

func TestAuthRateLimit_TrustedProxyNamesClient(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) {
		d.AuthRatePerMinute = 2
		d.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("127.0.0.0/8")}
	})

	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		assert.Equal(t, http.StatusUnauthorized, signInFrom(t, api, ip), ip)
	}
	assert.Equal(t, http.StatusUnauthorized, signInFrom(t, api, "203.0.113.9"))
	assert.Equal(t, http.StatusUnauthorized, signInFrom(t, api, "203.0.113.9"))
	assert.Equal(t, http.StatusTooManyRequests, signInFrom(t, api, "203.0.113.9"))

	api.usage.Wait()
	var ips []string
	for _, e := range api.store.UsageEntries() {
		ips = append(ips, e.IPAddress)
	}
	assert.ElementsMatch(t, []string{
		"203.0.113.1", "203.0.113.2", "203.0.113.3",
		"203.0.113.9", "203.0.113.9", "203.0.113.9",
	}, ips)
}

func TestTrustedRealIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = clientIP(r) })

	tests := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		want    string
	}{
		{name: "trusted peer", trusted: trusted, remote: "10.1.2.3:4000", want: "198.51.100.7"},
		{name: "mapped trusted peer", trusted: trusted, remote: "[::ffff:10.1.2.3]:4000", want: "198.51.100.7"},
		{name: "untrusted peer", trusted: trusted, remote: "192.0.2.5:4000", want: "192.0.2.5"},
		{name: "no trusted proxies", trusted: nil, remote: "10.1.2.3:4000", want: "10.1.2.3"},
		{name: "unparsable peer", trusted: trusted, remote: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", "198.51.100.7")

			trustedRealIP(tt.trusted)(next).ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}
