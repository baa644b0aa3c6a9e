package tracing

import (
	"context"
	"testing"

	"escaperooms-directory/pkg/config"

	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{ServiceName: "test"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_ProviderWithEndpoint(t *testing.T) {
	// non-routable, nothing is exported
	shutdown, err := Setup(context.Background(), config.TracingConfig{Endpoint: "http://192.0.2.1:4318", ServiceName: "test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
