// Package tlsconfig builds *tls.Config values for conn.NewTLS, following
// the teacher's core/server/tls.go preset + functional-option convention:
// a handful of named compatibility presets, generalized with a small
// Option set to customize any of them.
package tlsconfig

import (
	"crypto/tls"
	"errors"
	"fmt"
)

// ecdheAEADCipherSuites is the TLS 1.2 cipher list every preset below that
// still allows TLS 1.2 restricts itself to: ECDHE key exchange only (no
// static RSA, no forward-secrecy-less suites), AEAD bulk ciphers only.
// TLS 1.3 suites are never listed here — the stdlib selects those itself
// and ignores CipherSuites once 1.3 is negotiated.
var ecdheAEADCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
}

// Default returns the baseline this module recommends for a connection
// whose peer support isn't otherwise known: TLS 1.2+ restricted to
// forward-secret AEAD suites, X25519 preferred over P-256.
func Default() *tls.Config {
	return &tls.Config{
		MinVersion:       tls.VersionTLS12,
		CipherSuites:     ecdheAEADCipherSuites,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}
}

// Modern requires TLS 1.3, for peers known to support it — internal
// service-to-service links, or a frontend with a pinned modern client.
// CipherSuites is left nil since Go's TLS 1.3 suite selection isn't
// configurable and doesn't consult it.
func Modern() *tls.Config {
	return &tls.Config{
		MinVersion:       tls.VersionTLS13,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}
}

// Intermediate widens Default's curve preferences to also accept P-384,
// for clients whose TLS stack never enabled X25519 or P-256. Cipher
// suites are the same forward-secret AEAD set as Default.
func Intermediate() *tls.Config {
	cfg := Default()
	cfg.CurvePreferences = append(cfg.CurvePreferences, tls.CurveP384)
	return cfg
}

// Strict builds on Modern with the hardening a high-security deployment
// wants beyond protocol version alone: session tickets off (so a stolen
// ticket can't resume a session without the handshake's forward secrecy),
// and renegotiation refused outright.
func Strict() *tls.Config {
	cfg := Modern()
	cfg.SessionTicketsDisabled = true
	cfg.Renegotiation = tls.RenegotiateNever
	return cfg
}

// Option customizes a *tls.Config built by New.
type Option func(*tls.Config) error

// WithCertificate loads a PEM certificate/key pair from disk and appends
// it to the config's certificate list.
func WithCertificate(certFile, keyFile string) Option {
	return func(cfg *tls.Config) error {
		if certFile == "" || keyFile == "" {
			return ErrEmptyCertPath
		}
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return errors.Join(ErrFailedLoadCert, err)
		}
		cfg.Certificates = append(cfg.Certificates, cert)
		return nil
	}
}

// WithClientAuth sets the client certificate authentication policy.
func WithClientAuth(authType tls.ClientAuthType) Option {
	return func(cfg *tls.Config) error {
		switch authType {
		case tls.NoClientCert, tls.RequestClientCert, tls.RequireAnyClientCert,
			tls.VerifyClientCertIfGiven, tls.RequireAndVerifyClientCert:
			cfg.ClientAuth = authType
			return nil
		default:
			return errors.Join(ErrInvalidClientAuthType, fmt.Errorf("%d", authType))
		}
	}
}

// WithMinVersion sets the minimum negotiated TLS version.
func WithMinVersion(version uint16) Option {
	return func(cfg *tls.Config) error {
		if !isValidVersion(version) {
			return errors.Join(ErrInvalidTLSVersion, fmt.Errorf("0x%04x", version))
		}
		if cfg.MaxVersion > 0 && version > cfg.MaxVersion {
			return ErrTLSVersionMismatch
		}
		cfg.MinVersion = version
		return nil
	}
}

// WithMaxVersion sets the maximum negotiated TLS version.
func WithMaxVersion(version uint16) Option {
	return func(cfg *tls.Config) error {
		if !isValidVersion(version) {
			return errors.Join(ErrInvalidTLSVersion, fmt.Errorf("0x%04x", version))
		}
		if cfg.MinVersion > 0 && version < cfg.MinVersion {
			return ErrTLSVersionMismatch
		}
		cfg.MaxVersion = version
		return nil
	}
}

// WithServerName sets the expected peer server name, used on the client
// (dialing) side of a conn.NewTLS handshake.
func WithServerName(serverName string) Option {
	return func(cfg *tls.Config) error {
		if serverName == "" {
			return ErrEmptyServerName
		}
		cfg.ServerName = serverName
		return nil
	}
}

// WithInsecureSkipVerify disables peer certificate verification.
// Intended for tests only — never enable this in production.
func WithInsecureSkipVerify() Option {
	return func(cfg *tls.Config) error {
		cfg.InsecureSkipVerify = true
		return nil
	}
}

func isValidVersion(version uint16) bool {
	switch version {
	case tls.VersionTLS10, tls.VersionTLS11, tls.VersionTLS12, tls.VersionTLS13:
		return true
	default:
		return false
	}
}

// New builds a *tls.Config starting from the Default preset, applying
// opts in order.
func New(opts ...Option) (*tls.Config, error) {
	cfg := Default()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
