package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d, err := NewDetector("203.0.113.0/24")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public", "8.8.8.8:1234", "1.1.1.1", "", "8.8.8.8"},
		{"trusted loopback with xff", "127.0.0.1:1234", "1.1.1.1, 10.0.0.2", "", "1.1.1.1"},
		{"trusted extra proxy", "203.0.113.7:80", "9.9.9.9", "", "9.9.9.9"},
		{"trusted with x-real-ip", "10.1.2.3:80", "", "4.4.4.4", "4.4.4.4"},
		{"trusted with garbage xff", "10.1.2.3:80", "not-an-ip", "", "10.1.2.3"},
		{"no port", "8.8.4.4", "", "", "8.8.4.4"},
		{"spoofed leftmost entry ignored", "10.0.0.5:80", "1.1.1.1, 198.51.100.9", "", "198.51.100.9"},
		{"another spoofed leftmost entry", "10.0.0.5:80", "2.2.2.2, 198.51.100.9", "", "198.51.100.9"},
		{"proxy chain skipped from the right", "10.0.0.5:80", "6.6.6.6, 198.51.100.9, 203.0.113.4, 10.0.0.7", "", "198.51.100.9"},
		{"client inside private network", "10.0.0.5:80", "192.168.1.4, 10.0.0.9", "", "192.168.1.4"},
		{"garbage left of trusted hops", "10.0.0.5:80", "junk, 10.0.0.9", "", "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Fatalf("ExtractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractClientIPJoinsRepeatedHeaders(t *testing.T) {
	d, err := NewDetector()
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:9000"
	r.Header.Add("X-Forwarded-For", "5.5.5.5")
	r.Header.Add("X-Forwarded-For", "198.51.100.20, 10.0.0.3")
	if got := d.ExtractClientIP(r); got != "198.51.100.20" {
		t.Fatalf("ExtractClientIP = %q, want 198.51.100.20", got)
	}
}

func TestNewDetectorRejectsBadCIDR(t *testing.T) {
	if _, err := NewDetector("10.0.0.0/99"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d, _ := NewDetector()
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"normal page", http.MethodGet, "/expenses", "Mozilla/5.0", false},
		{"path traversal", http.MethodGet, "/static/../../etc/passwd", "", true},
		{"env file scan", http.MethodGet, "/.env", "", true},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
		{"sql in query", http.MethodGet, "/expenses?q=1+union+select+1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			if got := d.DetectSuspiciousRequest(r) != ""; got != tt.want {
				t.Fatalf("suspicious = %v, want %v", got, tt.want)
			}
		})
	}
	if m := d.GetMetrics(); m.SuspiciousRequests != 5 {
		t.Fatalf("SuspiciousRequests = %d", m.SuspiciousRequests)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(NoStore(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, key := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rec.Header().Get(key) == "" {
			t.Errorf("missing %s", key)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS sent over plain HTTP")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("missing no-store")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", rec.Header().Get("Strict-Transport-Security"))
	}
}
