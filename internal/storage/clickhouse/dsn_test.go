package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDSN(t *testing.T) {
	opts, err := parseDSN("clickhouse://risk:pw@ch.local/risklo")
	require.NoError(t, err)
	assert.Equal(t, []string{"ch.local:9000"}, opts.Addr)
	assert.Equal(t, "risk", opts.Auth.Username)
	assert.Equal(t, "pw", opts.Auth.Password)
	assert.Equal(t, "risklo", opts.Auth.Database)
	assert.Nil(t, opts.TLS)
	assert.Nil(t, opts.Compression)
	assert.Equal(t, 10*time.Second, opts.DialTimeout)
}

func TestParseDSN_Options(t *testing.T) {
	opts, err := parseDSN("clickhouse://ch.local?secure=true&dial_timeout=3s&compress=lz4")
	require.NoError(t, err)
	assert.Equal(t, []string{"ch.local:9440"}, opts.Addr)
	require.NotNil(t, opts.TLS)
	assert.Equal(t, "ch.local", opts.TLS.ServerName)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)
	require.NotNil(t, opts.Compression)
	assert.Equal(t, clickhouse.CompressionLZ4, opts.Compression.Method)
	assert.Empty(t, opts.Auth.Database)

	opts, err = parseDSN("clickhouse://ch.local:9001?secure=1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ch.local:9001"}, opts.Addr)
}

func TestParseDSN_Invalid(t *testing.T) {
	for _, dsn := range []string{
		"postgres://localhost/risklo",
		"clickhouse://ch.local?dial_timeout=soon",
		"clickhouse://ch.local?compress=gzip",
		"clickhouse://%zz",
	} {
		_, err := parseDSN(dsn)
		assert.Error(t, err, dsn)
	}
}
