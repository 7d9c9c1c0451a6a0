// Package seed populates a database with demo users, follows and posts.
// Everything goes through the services, so seeded data obeys the same rules
// as real traffic. Intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"microblog/internal/clock"
	"microblog/internal/events"
	"microblog/internal/middleware"
	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/service"
	"microblog/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumPosts       int
	FollowsPerUser int
	// MaxDays spreads post timestamps over this many days back from now.
	MaxDays int
	// RandSeed makes a run reproducible; 0 picks a time-based seed.
	RandSeed int64
}

// Summary reports what a run created.
type Summary struct {
	Users   int
	Follows int
	Posts   int
}

// Seeder creates demo data through the domain services.
type Seeder struct {
	users   *service.UserService
	follows *service.FollowService
	posts   *service.PostService
	clock   clock.Clock
	faker   *gofakeit.Faker
}

// NewSeeder binds a seeder to db. Events are not published for seeded data.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	store := repository.NewStore(db)
	clk := clock.NewRealClock()
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		users:   service.NewUserService(store, events.Nop{}, clk),
		follows: service.NewFollowService(store, events.Nop{}, clk),
		posts:   service.NewPostService(store, events.Nop{}, clk, service.DefaultPagination),
		clock:   clk,
		faker:   gofakeit.New(seed),
	}
}

// Run creates users, a random follow graph and posts, in that order.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	middleware.Logger.InfoContext(ctx, "seeding database",
		"users", opts.NumUsers, "posts", opts.NumPosts, "follows_per_user", opts.FollowsPerUser)

	users, err := s.createUsers(ctx, opts.NumUsers)
	if err != nil {
		return sum, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)

	sum.Follows, err = s.createFollows(ctx, users, opts.FollowsPerUser)
	if err != nil {
		return sum, fmt.Errorf("failed to create follows: %w", err)
	}

	sum.Posts, err = s.createPosts(ctx, users, opts.NumPosts, opts.MaxDays)
	if err != nil {
		return sum, fmt.Errorf("failed to create posts: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seeding complete",
		"users", sum.Users, "follows", sum.Follows, "posts", sum.Posts)
	return sum, nil
}

func (s *Seeder) createUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		first := strings.ToLower(s.faker.FirstName())
		email := fmt.Sprintf("%s.%d@example.com", first, i+1)
		user, err := s.users.CreateUser(ctx, validation.SanitizeNickname(s.faker.Username(), email), email)
		if err != nil {
			return nil, err
		}

		user, err = s.users.UpdateProfile(ctx, service.UpdateProfileInput{
			UserID:   user.ID,
			Nickname: user.Nickname,
			AboutMe:  truncate(s.faker.HackerPhrase(), models.MaxAboutMeLength),
		})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createFollows(ctx context.Context, users []*models.User, perUser int) (int, error) {
	if len(users) < 2 || perUser <= 0 {
		return 0, nil
	}
	created := 0
	for _, follower := range users {
		for j := 0; j < perUser; j++ {
			target := users[s.faker.Number(0, len(users)-1)]
			result, err := s.follows.Follow(ctx, follower.ID, target.ID)
			if err != nil {
				return created, err
			}
			if result == models.FollowResultFollowed {
				created++
			}
		}
	}
	return created, nil
}

func (s *Seeder) createPosts(ctx context.Context, users []*models.User, n, maxDays int) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	if maxDays <= 0 {
		maxDays = 30
	}
	now := s.clock.NowUTC()
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		back := time.Duration(s.faker.Number(0, maxDays*24*60)) * time.Minute
		body := truncate(s.faker.Sentence(s.faker.Number(3, 18)), models.MaxPostBodyLength)
		if _, err := s.posts.CreatePost(ctx, author.ID, body, now.Add(-back)); err != nil {
			return i, err
		}
	}
	return n, nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}
