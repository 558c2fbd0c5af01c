package tlsconfig

import "errors"

var (
	ErrEmptyCertPath         = errors.New("tlsconfig: certificate or key file path cannot be empty")
	ErrEmptyServerName       = errors.New("tlsconfig: server name cannot be empty")
	ErrInvalidTLSVersion     = errors.New("tlsconfig: invalid TLS version")
	ErrInvalidClientAuthType = errors.New("tlsconfig: invalid client auth type")
	ErrTLSVersionMismatch    = errors.New("tlsconfig: TLS version mismatch")
	ErrFailedLoadCert        = errors.New("tlsconfig: failed to load certificate")
)
