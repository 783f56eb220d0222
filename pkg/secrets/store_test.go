// Copyright 2026 fanjia1024
// Tests for the secret store backends

package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreProviderSelection(t *testing.T) {
	s, err := NewStore(Config{Provider: "memory"})
	require.NoError(t, err)
	require.NotNil(t, s)

	s, err = NewStore(Config{})
	require.NoError(t, err)
	require.NotNil(t, s)

	s, err = NewStore(Config{Provider: "bogus"})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "unknown secret provider")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "LEDGER_API_KEY")
	require.Error(t, err)

	require.NoError(t, s.Set(ctx, "LEDGER_API_KEY", "test-key"))
	got, err := s.Get(ctx, "LEDGER_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "test-key", got)

	require.NoError(t, s.Delete(ctx, "LEDGER_API_KEY"))
	_, err = s.Get(ctx, "LEDGER_API_KEY")
	assert.Error(t, err)
}

func TestEnvStoreReadsEnvironment(t *testing.T) {
	ctx := context.Background()
	s := NewEnvStore()

	t.Setenv("LEDGER_AGENT_TEST_SECRET", "from-env")
	got, err := s.Get(ctx, "LEDGER_AGENT_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	_, err = s.Get(ctx, "LEDGER_AGENT_TEST_MISSING")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment variable not set")
}
