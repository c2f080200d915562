package service

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/prefs"
)

// DefaultOnboardingSteps is the length of the onboarding flow.
const DefaultOnboardingSteps = 4

// OnboardingAction is a transition requested by the client.
type OnboardingAction string

const (
	OnboardingAdvance  OnboardingAction = "advance"
	OnboardingComplete OnboardingAction = "complete"
	OnboardingReset    OnboardingAction = "reset"
)

// UserService serves per-wallet UX state.
type UserService struct {
	onboarding *prefs.Onboarding
	shares     *prefs.Shares
	watchlist  *prefs.Watchlist
}

// NewUserService creates a UserService. steps <= 0 selects
// DefaultOnboardingSteps.
func NewUserService(kv domain.KVStore, steps int) *UserService {
	if steps <= 0 {
		steps = DefaultOnboardingSteps
	}
	return &UserService{
		onboarding: prefs.NewOnboarding(kv, steps),
		shares:     prefs.NewShares(kv),
		watchlist:  prefs.NewWatchlist(kv),
	}
}

// Onboarding returns the wallet's onboarding state.
func (s *UserService) Onboarding(ctx context.Context, wallet string) (prefs.OnboardingState, error) {
	if err := prefs.ValidateWallet(wallet); err != nil {
		return prefs.OnboardingState{}, err
	}
	return s.onboarding.State(ctx, wallet)
}

// UpdateOnboarding applies action and returns the new state.
func (s *UserService) UpdateOnboarding(ctx context.Context, wallet string, action OnboardingAction) (prefs.OnboardingState, error) {
	if err := prefs.ValidateWallet(wallet); err != nil {
		return prefs.OnboardingState{}, err
	}
	switch action {
	case OnboardingAdvance:
		return s.onboarding.Advance(ctx, wallet)
	case OnboardingComplete:
		return s.onboarding.Complete(ctx, wallet)
	case OnboardingReset:
		if err := s.onboarding.Reset(ctx, wallet); err != nil {
			return prefs.OnboardingState{}, err
		}
		return s.onboarding.State(ctx, wallet)
	default:
		return prefs.OnboardingState{}, fmt.Errorf("user_service: onboarding action %q: %w", action, domain.ErrInvalidInput)
	}
}

// RecordShare counts one share and returns the new total.
func (s *UserService) RecordShare(ctx context.Context, wallet string) (int, error) {
	if err := prefs.ValidateWallet(wallet); err != nil {
		return 0, err
	}
	return s.shares.Increment(ctx, wallet)
}

// Watchlist returns the followed opinion ids.
func (s *UserService) Watchlist(ctx context.Context, wallet string) ([]uint64, error) {
	if err := prefs.ValidateWallet(wallet); err != nil {
		return nil, err
	}
	return s.watchlist.List(ctx, wallet)
}

// Watch follows or unfollows an opinion.
func (s *UserService) Watch(ctx context.Context, wallet string, id uint64, follow bool) ([]uint64, error) {
	if err := prefs.ValidateWallet(wallet); err != nil {
		return nil, err
	}
	if follow {
		return s.watchlist.Add(ctx, wallet, id)
	}
	return s.watchlist.Remove(ctx, wallet, id)
}
