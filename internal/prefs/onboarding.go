package prefs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const onboardingNamespace = "onboarding"

// OnboardingState is a wallet's position in the onboarding flow.
type OnboardingState struct {
	Step      int  `json:"step"`
	Completed bool `json:"completed"`
}

// Onboarding persists onboarding progress.
type Onboarding struct {
	kv    domain.KVStore
	steps int
}

// NewOnboarding creates an Onboarding store for a flow of steps steps.
func NewOnboarding(kv domain.KVStore, steps int) *Onboarding {
	return &Onboarding{kv: kv, steps: max(steps, 1)}
}

// Steps is the number of steps in the flow.
func (o *Onboarding) Steps() int { return o.steps }

// State returns the stored state; unknown wallets start at step 0.
func (o *Onboarding) State(ctx context.Context, wallet string) (OnboardingState, error) {
	var st OnboardingState

	raw, err := get(ctx, o.kv, Key(wallet, onboardingNamespace, "step"))
	if err != nil {
		return st, fmt.Errorf("prefs: onboarding step: %w", err)
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		st.Step = min(n, o.steps)
	}

	raw, err = get(ctx, o.kv, Key(wallet, onboardingNamespace, "completed"))
	if err != nil {
		return st, fmt.Errorf("prefs: onboarding completed: %w", err)
	}
	st.Completed = raw == "true"
	return st, nil
}

// Advance moves to the next step, completing the flow after the last one.
func (o *Onboarding) Advance(ctx context.Context, wallet string) (OnboardingState, error) {
	st, err := o.State(ctx, wallet)
	if err != nil {
		return st, err
	}
	if st.Completed {
		return st, nil
	}
	st.Step++
	if st.Step >= o.steps {
		return o.Complete(ctx, wallet)
	}
	if err := o.kv.Set(ctx, Key(wallet, onboardingNamespace, "step"), strconv.Itoa(st.Step)); err != nil {
		return st, fmt.Errorf("prefs: onboarding advance: %w", err)
	}
	return st, nil
}

// Complete marks the flow as finished.
func (o *Onboarding) Complete(ctx context.Context, wallet string) (OnboardingState, error) {
	st := OnboardingState{Step: o.steps, Completed: true}
	if err := o.kv.Set(ctx, Key(wallet, onboardingNamespace, "step"), strconv.Itoa(st.Step)); err != nil {
		return st, fmt.Errorf("prefs: onboarding complete: %w", err)
	}
	if err := o.kv.Set(ctx, Key(wallet, onboardingNamespace, "completed"), "true"); err != nil {
		return st, fmt.Errorf("prefs: onboarding complete: %w", err)
	}
	return st, nil
}

// Reset clears onboarding progress.
func (o *Onboarding) Reset(ctx context.Context, wallet string) error {
	for _, name := range []string{"step", "completed"} {
		if err := o.kv.Delete(ctx, Key(wallet, onboardingNamespace, name)); err != nil {
			return fmt.Errorf("prefs: onboarding reset: %w", err)
		}
	}
	return nil
}
