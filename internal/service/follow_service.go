package service

import (
	"context"

	"microblog/internal/clock"
	"microblog/internal/events"
	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"
)

// FollowService is the social graph.
type FollowService struct {
	store     repository.Store
	publisher events.Publisher
	clock     clock.Clock
}

// FollowCounts backs the profile view. The self edge is not counted.
type FollowCounts struct {
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
}

func NewFollowService(store repository.Store, publisher events.Publisher, clk clock.Clock) *FollowService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &FollowService{store: store, publisher: publisher, clock: clk}
}

// Follow adds the edge followerID -> followeeID. Following yourself is ignored;
// the self edge is only created at registration.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint) (models.FollowResult, error) {
	if followerID == followeeID {
		observability.FollowOperations.WithLabelValues("follow", string(models.FollowResultSelfFollowIgnored)).Inc()
		return models.FollowResultSelfFollowIgnored, nil
	}

	result := models.FollowResultAlreadyFollowing
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if err := requireUsers(ctx, r.Users, followerID, followeeID); err != nil {
			return err
		}
		created, err := r.Follows.Create(ctx, followerID, followeeID)
		if err != nil {
			return err
		}
		if created {
			result = models.FollowResultFollowed
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	observability.FollowOperations.WithLabelValues("follow", string(result)).Inc()
	if result.Changed() {
		publish(ctx, s.publisher, events.New(events.FollowCreated, followerID, s.clock.NowUTC(), map[string]any{
			"followed_id": followeeID,
		}))
	}
	return result, nil
}

// Unfollow removes the edge. A missing edge is a successful no-op; the self
// edge is protected so a user's own posts stay in their feed.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint) (models.FollowResult, error) {
	if followerID == followeeID {
		observability.FollowOperations.WithLabelValues("unfollow", string(models.FollowResultSelfUnfollowIgnored)).Inc()
		return models.FollowResultSelfUnfollowIgnored, nil
	}

	result := models.FollowResultNotFollowing
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if err := requireUsers(ctx, r.Users, followerID, followeeID); err != nil {
			return err
		}
		removed, err := r.Follows.Delete(ctx, followerID, followeeID)
		if err != nil {
			return err
		}
		if removed {
			result = models.FollowResultUnfollowed
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	observability.FollowOperations.WithLabelValues("unfollow", string(result)).Inc()
	if result.Changed() {
		publish(ctx, s.publisher, events.New(events.FollowRemoved, followerID, s.clock.NowUTC(), map[string]any{
			"followed_id": followeeID,
		}))
	}
	return result, nil
}

// IsFollowing is a single indexed lookup on the edge.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.store.Repos().Follows.Exists(ctx, followerID, followeeID)
}

// ListFollowing returns the IDs followerID follows, excluding itself.
func (s *FollowService) ListFollowing(ctx context.Context, followerID uint) ([]uint, error) {
	var ids []uint
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Users.FindByID(ctx, followerID); err != nil {
			return err
		}
		var err error
		ids, err = r.Follows.ListFollowing(ctx, followerID)
		return err
	})
	return ids, err
}

// ListFollowers returns the IDs following followeeID, excluding itself.
func (s *FollowService) ListFollowers(ctx context.Context, followeeID uint) ([]uint, error) {
	var ids []uint
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Users.FindByID(ctx, followeeID); err != nil {
			return err
		}
		var err error
		ids, err = r.Follows.ListFollowers(ctx, followeeID)
		return err
	})
	return ids, err
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	following, followers, err := s.store.Repos().Follows.Counts(ctx, userID)
	if err != nil {
		return FollowCounts{}, err
	}
	return FollowCounts{Following: following, Followers: followers}, nil
}

func requireUsers(ctx context.Context, users repository.UserRepository, ids ...uint) error {
	for _, id := range ids {
		if _, err := users.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
