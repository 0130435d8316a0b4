package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gorilla/mux"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/routing"
)

type OpsGuardOptions struct {
	Enabled bool
	// CIDRs is a comma, semicolon or whitespace separated list. Invalid
	// entries are ignored.
	CIDRs         string
	Token         string
	BasicAuthUser string
	BasicAuthPass string
	RealIPHeader  string
	// Paths are the ops route prefixes, matched on path-segment boundaries.
	Paths []string
}

// OpsGuard hides the ops routes (metrics, the import run ledger) from
// callers outside the allowed networks that present neither the ops token
// nor the ops basic-auth pair. Such callers get the same JSON 404 as an
// unknown route.
func OpsGuard(opts OpsGuardOptions) mux.MiddlewareFunc {
	allowed := parseCIDRs(opts.CIDRs)
	token := strings.TrimSpace(opts.Token)
	basic := strings.TrimSpace(opts.BasicAuthUser) != "" || strings.TrimSpace(opts.BasicAuthPass) != ""

	guarded := func(path string) bool {
		for _, p := range opts.Paths {
			if routing.HasPathPrefixOnBoundary(path, p) {
				return true
			}
		}
		return false
	}

	permitted := func(r *http.Request) bool {
		if addr, ok := clientAddr(r, opts.RealIPHeader); ok {
			for _, p := range allowed {
				if p.Contains(addr) {
					return true
				}
			}
		}
		if token != "" && secretEqual(opsToken(r), token) {
			return true
		}
		if basic {
			u, p, ok := r.BasicAuth()
			if ok && secretEqual(u, opts.BasicAuthUser) && secretEqual(p, opts.BasicAuthPass) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.Enabled || !guarded(r.URL.Path) || permitted(r) {
				next.ServeHTTP(w, r)
				return
			}
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
		})
	}
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func parseCIDRs(raw string) []netip.Prefix {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]netip.Prefix, 0, len(fields))
	for _, f := range fields {
		if p, err := netip.ParsePrefix(f); err == nil {
			out = append(out, p.Masked())
		}
	}
	return out
}

// opsToken reads X-Ops-Token, then a bearer Authorization header.
func opsToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("X-Ops-Token")); t != "" {
		return t
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

// clientAddr takes the first hop of the real-ip header when set, otherwise
// the connection's remote address.
func clientAddr(r *http.Request, header string) (netip.Addr, bool) {
	raw := r.RemoteAddr
	if header != "" {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			raw, _, _ = strings.Cut(v, ",")
		}
	}
	raw = strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
