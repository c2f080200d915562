package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/opinionmarketcap/internal/prefs"
	"github.com/alanyoungcy/opinionmarketcap/internal/service"
)

// BadgeService is what the badge endpoints need.
type BadgeService interface {
	Profile(ctx context.Context, wallet string) (service.BadgeProfile, error)
	MarkSeen(ctx context.Context, wallet string, ids []string) error
}

// UserService is what the per-wallet preference endpoints need.
type UserService interface {
	Onboarding(ctx context.Context, wallet string) (prefs.OnboardingState, error)
	UpdateOnboarding(ctx context.Context, wallet string, action service.OnboardingAction) (prefs.OnboardingState, error)
	RecordShare(ctx context.Context, wallet string) (int, error)
	Watchlist(ctx context.Context, wallet string) ([]uint64, error)
	Watch(ctx context.Context, wallet string, id uint64, follow bool) ([]uint64, error)
}

// UserHandler serves wallet-scoped endpoints.
type UserHandler struct {
	badges BadgeService
	users  UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(badges BadgeService, users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{badges: badges, users: users, logger: logger}
}

// Badges returns the badge profile of a wallet.
// GET /api/users/{address}/badges
func (h *UserHandler) Badges(w http.ResponseWriter, r *http.Request) {
	p, err := h.badges.Profile(r.Context(), r.PathValue("address"))
	if err != nil {
		writeDomainError(w, r, h.logger, "badge profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type markSeenRequest struct {
	BadgeIDs []string `json:"badgeIds"`
}

// MarkBadgesSeen records shown badge notifications.
// POST /api/users/{address}/badges/seen {"badgeIds": [...]}
func (h *UserHandler) MarkBadgesSeen(w http.ResponseWriter, r *http.Request) {
	var req markSeenRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "mark badges seen", err)
		return
	}
	if err := h.badges.MarkSeen(r.Context(), r.PathValue("address"), req.BadgeIDs); err != nil {
		writeDomainError(w, r, h.logger, "mark badges seen", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOnboarding returns the onboarding state.
// GET /api/users/{address}/onboarding
func (h *UserHandler) GetOnboarding(w http.ResponseWriter, r *http.Request) {
	st, err := h.users.Onboarding(r.Context(), r.PathValue("address"))
	if err != nil {
		writeDomainError(w, r, h.logger, "onboarding", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type onboardingRequest struct {
	Action service.OnboardingAction `json:"action"`
}

// UpdateOnboarding applies an onboarding transition.
// POST /api/users/{address}/onboarding {"action": "advance"|"complete"|"reset"}
func (h *UserHandler) UpdateOnboarding(w http.ResponseWriter, r *http.Request) {
	req := onboardingRequest{Action: service.OnboardingAdvance}
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "update onboarding", err)
		return
	}
	st, err := h.users.UpdateOnboarding(r.Context(), r.PathValue("address"), req.Action)
	if err != nil {
		writeDomainError(w, r, h.logger, "update onboarding", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RecordShare counts one share.
// POST /api/users/{address}/shares
func (h *UserHandler) RecordShare(w http.ResponseWriter, r *http.Request) {
	n, err := h.users.RecordShare(r.Context(), r.PathValue("address"))
	if err != nil {
		writeDomainError(w, r, h.logger, "record share", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sharesCount": n})
}

// Watchlist returns the followed opinion ids.
// GET /api/users/{address}/watchlist
func (h *UserHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	ids, err := h.users.Watchlist(r.Context(), r.PathValue("address"))
	if err != nil {
		writeDomainError(w, r, h.logger, "watchlist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"opinionIds": nonNil(ids)})
}

// Watch follows an opinion.
// POST /api/users/{address}/watchlist/{id}
func (h *UserHandler) Watch(w http.ResponseWriter, r *http.Request) {
	h.watch(w, r, true)
}

// Unwatch unfollows an opinion.
// DELETE /api/users/{address}/watchlist/{id}
func (h *UserHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	h.watch(w, r, false)
}

func (h *UserHandler) watch(w http.ResponseWriter, r *http.Request, follow bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, h.logger, "watch", err)
		return
	}
	ids, err := h.users.Watch(r.Context(), r.PathValue("address"), id, follow)
	if err != nil {
		writeDomainError(w, r, h.logger, "watch", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"opinionIds": nonNil(ids)})
}

func nonNil(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}
