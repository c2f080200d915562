package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/badge"
	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/prefs"
)

// NextAchievableCount is how many unearned badges a profile suggests.
const NextAchievableCount = 3

// BadgeProfile is the gamification state of one wallet.
type BadgeProfile struct {
	Stats          domain.UserStats       `json:"stats"`
	Badges         []domain.BadgeProgress `json:"badges"`
	NextAchievable []domain.BadgeProgress `json:"nextAchievable"`
	Earned         []string               `json:"earned"`
	Unseen         []string               `json:"unseen"`
	TotalXP        int                    `json:"totalXp"`
	Level          domain.Level           `json:"level"`
	// StatsDegraded is set when chain-derived stats were unavailable and
	// zeros were used.
	StatsDegraded bool `json:"statsDegraded"`
}

// BadgeService evaluates badges against recomputed stats and local prefs.
type BadgeService struct {
	stats     domain.UserStatsProvider
	seen      *prefs.Badges
	shares    *prefs.Shares
	watchlist *prefs.Watchlist
	now       func() time.Time
	logger    *slog.Logger
}

// NewBadgeService creates a BadgeService.
func NewBadgeService(stats domain.UserStatsProvider, kv domain.KVStore, logger *slog.Logger) *BadgeService {
	return &BadgeService{
		stats:     stats,
		seen:      prefs.NewBadges(kv),
		shares:    prefs.NewShares(kv),
		watchlist: prefs.NewWatchlist(kv),
		now:       time.Now,
		logger:    logger,
	}
}

// Profile computes the badge profile of wallet. Stats or preference
// failures degrade to zero values; only an unusable wallet is an error.
func (s *BadgeService) Profile(ctx context.Context, wallet string) (BadgeProfile, error) {
	if err := prefs.ValidateWallet(wallet); err != nil {
		return BadgeProfile{}, err
	}

	var p BadgeProfile
	stats, err := s.stats.Stats(ctx, wallet)
	if err != nil {
		s.logger.WarnContext(ctx, "badge_service: stats unavailable",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		stats = domain.UserStats{Address: wallet}
		p.StatsDegraded = true
	}
	stats = s.mergeLocal(ctx, wallet, stats)

	p.Stats = stats
	p.Badges = badge.AllWithProgress(stats)
	p.NextAchievable = badge.NextAchievable(stats, NextAchievableCount)
	p.Earned = badge.EarnedIDs(stats)
	p.TotalXP = badge.TotalXP(p.Earned)
	p.Level = badge.LevelFromXP(p.TotalXP)

	unseen, err := s.seen.Unseen(ctx, wallet, p.Earned)
	if err != nil {
		s.logger.WarnContext(ctx, "badge_service: seen set unavailable", slog.String("error", err.Error()))
		unseen = nil
	}
	p.Unseen = unseen
	return p, nil
}

// MarkSeen records that the wallet was shown the given badges.
func (s *BadgeService) MarkSeen(ctx context.Context, wallet string, ids []string) error {
	if err := prefs.ValidateWallet(wallet); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := badge.Lookup(id); !ok {
			return fmt.Errorf("badge_service: unknown badge %q: %w", id, domain.ErrInvalidInput)
		}
	}
	if err := s.seen.MarkSeen(ctx, wallet, ids...); err != nil {
		return fmt.Errorf("badge_service: %w", err)
	}
	return nil
}

// mergeLocal fills in the counters only the preference store knows.
func (s *BadgeService) mergeLocal(ctx context.Context, wallet string, stats domain.UserStats) domain.UserStats {
	if n, err := s.shares.Count(ctx, wallet); err == nil {
		stats.SharesCount = max(stats.SharesCount, n)
	} else {
		s.logger.WarnContext(ctx, "badge_service: shares unavailable", slog.String("error", err.Error()))
	}

	if n, err := s.watchlist.Count(ctx, wallet); err == nil {
		stats.WatchlistCount = max(stats.WatchlistCount, n)
	} else {
		s.logger.WarnContext(ctx, "badge_service: watchlist unavailable", slog.String("error", err.Error()))
	}

	// The earliest known sighting wins. A chain-derived first activity is
	// cached so it survives event pruning.
	seenAt := s.now().UTC()
	if stats.FirstSeen != nil {
		seenAt = stats.FirstSeen.UTC()
	}
	first, err := s.shares.TouchFirstSeen(ctx, wallet, seenAt)
	if err != nil {
		s.logger.WarnContext(ctx, "badge_service: first seen unavailable", slog.String("error", err.Error()))
		return stats
	}
	if stats.FirstSeen == nil || first.Before(*stats.FirstSeen) {
		stats.FirstSeen = &first
	}
	return stats
}
