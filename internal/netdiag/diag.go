package netdiag

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ares-console/ares/internal/api"
	"github.com/ares-console/ares/internal/auth"
	"github.com/ares-console/ares/internal/config"
)

// Options configures a doctor scan.
type Options struct {
	Backend  config.BackendConfig
	Identity config.IdentityConfig
	Events   config.EventsConfig

	// AdminGate verifies the signed-in account passes the backend admin
	// check. Nil means nobody is signed in; the check is reported as skipped.
	AdminGate func(ctx context.Context) error

	// Timeout bounds each individual probe, not the whole scan.
	Timeout time.Duration
}

// Run executes the layered reachability scan: DNS, TCP, TLS, HTTP health,
// then the authenticated admin gate. Later layers are not attempted for a
// target once a prerequisite fails. Identity and Kafka targets are only
// probed when configured.
func Run(ctx context.Context, opts Options) *Report {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	r := &Report{StartedAt: time.Now().UTC()}

	backendUp := false
	if probeTransport(ctx, r, "backend", opts.Backend.BaseURL, opts.Timeout) {
		backendUp = checkBackendHealth(ctx, r, opts.Backend.BaseURL, opts.Timeout)
	}
	checkAdminGate(ctx, r, opts, backendUp)

	if issuer := strings.TrimSpace(opts.Identity.Issuer); issuer != "" {
		if probeTransport(ctx, r, "identity", issuer, opts.Timeout) {
			checkIdentityReachable(ctx, r, issuer, opts.Timeout)
		}
	}

	for _, broker := range opts.Events.Brokers {
		checkBroker(ctx, r, broker, opts.Timeout)
	}

	r.FinishedAt = time.Now().UTC()
	return r
}

// probeTransport walks DNS, TCP and TLS for one http(s) target. Reports
// whether the transport stack is usable for an HTTP check.
func probeTransport(ctx context.Context, r *Report, component, rawURL string, timeout time.Duration) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		r.add(Row{component, rawURL, LayerDNS, StatusFail, "invalid URL", "Expected http(s)://host[:port]."})
		return false
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	addr := net.JoinHostPort(host, port)

	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		r.add(Row{component, host, LayerDNS, StatusFail, fmt.Sprintf("DNS lookup failed: %v", err),
			"Check the hostname, /etc/hosts and DNS server."})
		return false
	}
	r.add(Row{component, host, LayerDNS, StatusOK, "resolved", ""})

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		r.add(Row{component, addr, LayerTCP, StatusFail, fmt.Sprintf("connect failed: %v", err),
			"Nothing listening there: service down, wrong port, or firewall."})
		return false
	}
	r.add(Row{component, addr, LayerTCP, StatusOK,
		fmt.Sprintf("connected in %s", time.Since(start).Truncate(time.Millisecond)), ""})

	if u.Scheme != "https" {
		conn.Close()
		r.add(Row{component, addr, LayerTLS, StatusSkip, "plain http, no TLS", ""})
		return true
	}
	defer conn.Close()

	tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		r.add(Row{component, addr, LayerTLS, StatusFail, fmt.Sprintf("handshake failed: %v", err),
			"Check CA chain, SNI/hostname and certificate validity."})
		return false
	}
	state := tlsConn.ConnectionState()
	exp := earliestExpiry(&state)
	detail := fmt.Sprintf("TLS %s; peer=%s; expires=%s",
		tlsVersionName(state.Version), peerName(&state), exp.Format("2006-01-02"))
	if time.Until(exp) < 30*24*time.Hour {
		r.add(Row{component, addr, LayerTLS, StatusWarn, detail, "Server certificate expires in under 30 days."})
	} else {
		r.add(Row{component, addr, LayerTLS, StatusOK, detail, ""})
	}
	return true
}

func checkBackendHealth(ctx context.Context, r *Report, baseURL string, timeout time.Duration) bool {
	target := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/api/v1/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		r.add(Row{"backend", target, LayerHTTP, StatusFail, fmt.Sprintf("bad request: %v", err), ""})
		return false
	}
	client := &http.Client{Timeout: timeout}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		r.add(Row{"backend", target, LayerHTTP, StatusFail, fmt.Sprintf("GET failed: %s", api.Describe(err)),
			"Backend process not serving HTTP; check its logs."})
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	latency := time.Since(start).Truncate(time.Millisecond)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.add(Row{"backend", target, LayerHTTP, StatusFail, fmt.Sprintf("http %d", resp.StatusCode),
			"Backend reachable but unhealthy; check runtime logs."})
		return false
	}
	r.add(Row{"backend", target, LayerHTTP, StatusOK, fmt.Sprintf("healthy in %s", latency), ""})
	return true
}

func checkIdentityReachable(ctx context.Context, r *Report, issuer string, timeout time.Duration) {
	target := strings.TrimRight(strings.TrimSpace(issuer), "/") + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		r.add(Row{"identity", target, LayerHTTP, StatusFail, fmt.Sprintf("bad request: %v", err), ""})
		return
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		r.add(Row{"identity", target, LayerHTTP, StatusFail, fmt.Sprintf("GET failed: %s", api.Describe(err)),
			"Identity issuer not serving HTTP; device login will not work."})
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode < 400:
		r.add(Row{"identity", target, LayerHTTP, StatusOK, fmt.Sprintf("reachable (http %d)", resp.StatusCode), ""})
	case resp.StatusCode < 500:
		r.add(Row{"identity", target, LayerHTTP, StatusWarn, fmt.Sprintf("reachable (http %d)", resp.StatusCode),
			"Issuer answered; device flow endpoints may still be misconfigured."})
	default:
		r.add(Row{"identity", target, LayerHTTP, StatusFail, fmt.Sprintf("http %d", resp.StatusCode),
			"Identity issuer erroring; device login will not work."})
	}
}

func checkAdminGate(ctx context.Context, r *Report, opts Options, backendUp bool) {
	target := strings.TrimSpace(opts.Backend.BaseURL)
	if !backendUp {
		r.add(Row{"backend", target, LayerAuth, StatusSkip, "skipped: backend unreachable", ""})
		return
	}
	if opts.AdminGate == nil {
		r.add(Row{"backend", target, LayerAuth, StatusSkip, "not signed in", "Run 'ares login'."})
		return
	}

	gateCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	switch err := opts.AdminGate(gateCtx); {
	case err == nil:
		r.add(Row{"backend", target, LayerAuth, StatusOK, "admin access confirmed", ""})
	case errors.Is(err, auth.ErrNotLoggedIn):
		r.add(Row{"backend", target, LayerAuth, StatusFail, "not signed in", "Run 'ares login'."})
	case errors.Is(err, auth.ErrNotAdmin):
		r.add(Row{"backend", target, LayerAuth, StatusFail, "signed in but not an admin",
			"Ask an existing admin to promote your account."})
	case errors.Is(err, api.ErrUnauthorized):
		r.add(Row{"backend", target, LayerAuth, StatusFail, "token rejected",
			"Token expired or revoked: run 'ares login'."})
	default:
		r.add(Row{"backend", target, LayerAuth, StatusFail, api.Describe(err), ""})
	}
}

func checkBroker(ctx context.Context, r *Report, addr string, timeout time.Duration) {
	addr = strings.TrimSpace(addr)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		r.add(Row{"kafka", addr, LayerDNS, StatusFail, "invalid broker address", "Expected host:port in events.brokers."})
		return
	}
	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		r.add(Row{"kafka", host, LayerDNS, StatusFail, fmt.Sprintf("DNS lookup failed: %v", err),
			"Check events.brokers hostnames."})
		return
	}
	r.add(Row{"kafka", host, LayerDNS, StatusOK, "resolved", ""})

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		r.add(Row{"kafka", addr, LayerTCP, StatusFail, fmt.Sprintf("connect failed: %v", err),
			"Broker down, wrong port, or firewall."})
		return
	}
	conn.Close()
	r.add(Row{"kafka", addr, LayerTCP, StatusOK,
		fmt.Sprintf("connected in %s", time.Since(start).Truncate(time.Millisecond)), ""})

	dialer := &kafka.Dialer{Timeout: timeout}
	kconn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		r.add(Row{"kafka", addr, LayerKafka, StatusFail, fmt.Sprintf("broker dial failed: %v", err),
			"Auth/TLS mismatch or listener not exposed."})
		return
	}
	defer kconn.Close()
	_ = kconn.SetDeadline(time.Now().Add(timeout))
	if _, err := kconn.ApiVersions(); err != nil {
		r.add(Row{"kafka", addr, LayerKafka, StatusFail, fmt.Sprintf("ApiVersions failed: %v", err),
			"Broker incompatible or proxy interfering."})
		return
	}
	r.add(Row{"kafka", addr, LayerKafka, StatusOK, "ApiVersions OK", ""})
}

func peerName(st *tls.ConnectionState) string {
	if len(st.PeerCertificates) == 0 {
		return "-"
	}
	pc := st.PeerCertificates[0]
	if len(pc.DNSNames) > 0 {
		return pc.DNSNames[0]
	}
	return pc.Subject.CommonName
}

func earliestExpiry(st *tls.ConnectionState) time.Time {
	earliest := time.Now().Add(365 * 24 * time.Hour)
	for _, c := range st.PeerCertificates {
		if c.NotAfter.Before(earliest) {
			earliest = c.NotAfter
		}
	}
	return earliest
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS13:
		return "1.3"
	case tls.VersionTLS12:
		return "1.2"
	case tls.VersionTLS11:
		return "1.1"
	case tls.VersionTLS10:
		return "1.0"
	default:
		return fmt.Sprintf("%#x", v)
	}
}
