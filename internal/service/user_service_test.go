package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/prefs"
)

func TestUserService_Onboarding(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(prefs.NewMemoryStore(), 2)

	st, err := svc.UpdateOnboarding(ctx, testWallet, OnboardingAdvance)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Step)

	st, err = svc.UpdateOnboarding(ctx, testWallet, OnboardingComplete)
	require.NoError(t, err)
	assert.True(t, st.Completed)

	st, err = svc.UpdateOnboarding(ctx, testWallet, OnboardingReset)
	require.NoError(t, err)
	assert.False(t, st.Completed)
	assert.Zero(t, st.Step)

	_, err = svc.UpdateOnboarding(ctx, testWallet, "skip")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Onboarding(ctx, "bad wallet")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserService_SharesAndWatchlist(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(prefs.NewMemoryStore(), 0)

	n, err := svc.RecordShare(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := svc.Watch(ctx, testWallet, 5, true)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, ids)

	ids, err = svc.Watch(ctx, testWallet, 5, false)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
