package tlsconfig

import (
	"crypto/tls"

	"golang.org/x/crypto/acme/autocert"
)

// Autocert wraps golang.org/x/crypto/acme/autocert.Manager into a
// *tls.Config for conn.NewTLS, for callers who want on-demand certificate
// provisioning (renewed automatically by the manager) instead of the
// one-shot ACMEGenerator above.
//
// Grounded on the teacher's CertificateManager interface
// (core/server/autocert.go): that interface's GetCertificate/Exists shape
// is exactly what autocert.Manager already implements, so this module
// adapts it directly rather than re-deriving a parallel abstraction — the
// teacher's own manager was purpose-built for its multi-tenant domain
// store, which this engine has no equivalent of.
func Autocert(cacheDir string, hostPolicy autocert.HostPolicy) *tls.Config {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: hostPolicy,
	}
	if cacheDir != "" {
		m.Cache = autocert.DirCache(cacheDir)
	}
	cfg := m.TLSConfig()
	return cfg
}
