package tlsconfig_test

import (
	"crypto/tls"
	"testing"

	"github.com/dmitrymomot/httprelay/tlsconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ModernIntermediate_HaveSaneMinVersions(t *testing.T) {
	assert.Equal(t, uint16(tls.VersionTLS12), tlsconfig.Default().MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS13), tlsconfig.Modern().MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsconfig.Intermediate().MinVersion)
}

func TestIntermediate_AcceptsWiderCurveSetThanDefault(t *testing.T) {
	assert.Contains(t, tlsconfig.Intermediate().CurvePreferences, tls.CurveP384)
	assert.NotContains(t, tlsconfig.Default().CurvePreferences, tls.CurveP384)
}

func TestStrict_RequiresTLS13AndDisablesSessionTicketsAndRenegotiation(t *testing.T) {
	cfg := tlsconfig.Strict()
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
	assert.True(t, cfg.SessionTicketsDisabled)
	assert.Equal(t, tls.RenegotiateNever, cfg.Renegotiation)
}

func TestNew_WithEmptyCertPath_Errors(t *testing.T) {
	_, err := tlsconfig.New(tlsconfig.WithCertificate("", ""))
	assert.ErrorIs(t, err, tlsconfig.ErrEmptyCertPath)
}

func TestNew_WithInvalidClientAuth_Errors(t *testing.T) {
	_, err := tlsconfig.New(tlsconfig.WithClientAuth(tls.ClientAuthType(99)))
	assert.ErrorIs(t, err, tlsconfig.ErrInvalidClientAuthType)
}

func TestNew_WithMinMaxVersionMismatch_Errors(t *testing.T) {
	_, err := tlsconfig.New(
		tlsconfig.WithMaxVersion(tls.VersionTLS12),
		tlsconfig.WithMinVersion(tls.VersionTLS13),
	)
	assert.ErrorIs(t, err, tlsconfig.ErrTLSVersionMismatch)
}

func TestNew_WithServerName(t *testing.T) {
	cfg, err := tlsconfig.New(tlsconfig.WithServerName("example.com"))
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.ServerName)
}

func TestNew_WithEmptyServerName_Errors(t *testing.T) {
	_, err := tlsconfig.New(tlsconfig.WithServerName(""))
	assert.ErrorIs(t, err, tlsconfig.ErrEmptyServerName)
}

func TestNew_WithInsecureSkipVerify(t *testing.T) {
	cfg, err := tlsconfig.New(tlsconfig.WithInsecureSkipVerify())
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
}
