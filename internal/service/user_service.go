package service

import (
	"context"
	"errors"
	"time"

	"microblog/internal/clock"
	"microblog/internal/events"
	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"
	"microblog/internal/validation"
)

// UserService is the user directory.
type UserService struct {
	store     repository.Store
	publisher events.Publisher
	clock     clock.Clock
}

// UpdateProfileInput is an edit-profile submission.
type UpdateProfileInput struct {
	UserID   uint
	Nickname string
	AboutMe  string
}

func NewUserService(store repository.Store, publisher events.Publisher, clk clock.Clock) *UserService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &UserService{store: store, publisher: publisher, clock: clk}
}

// createAttempts bounds CreateUser retries after a concurrent signup takes the
// chosen nickname between the lookup and the insert.
const createAttempts = 3

// CreateUser registers a user. The e-mail must be new. The nickname is
// sanitized, and a taken one gets the first free numeric suffix. The user
// follows itself in the same transaction.
func (s *UserService) CreateUser(ctx context.Context, nickname, email string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.Email(email).Err("Invalid email"); err != nil {
		return nil, err
	}
	nickname = validation.SanitizeNickname(nickname, email)

	var (
		user *models.User
		err  error
	)
	for attempt := 0; attempt < createAttempts; attempt++ {
		user, err = s.createUser(ctx, nickname, email)
		if !errors.Is(err, models.ErrNicknameTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	observability.UsersRegistered.Inc()
	publish(ctx, s.publisher, events.New(events.UserRegistered, user.ID, s.clock.NowUTC(), map[string]any{
		"nickname": user.Nickname,
	}))
	return user, nil
}

func (s *UserService) createUser(ctx context.Context, nickname, email string) (*models.User, error) {
	var user *models.User
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Users.FindByEmail(ctx, email); err == nil {
			return models.NewDuplicateEmailError(email)
		} else if !errors.Is(err, models.ErrUserNotFound) {
			return err
		}

		unique, err := validation.UniqueNickname(nickname, func(candidate string) (bool, error) {
			return r.Users.NicknameExists(ctx, candidate, 0)
		})
		if err != nil {
			return err
		}

		u := &models.User{Nickname: unique, Email: email}
		if err := r.Users.Create(ctx, u); err != nil {
			return err
		}
		if _, err := r.Follows.Create(ctx, u.ID, u.ID); err != nil {
			return err
		}
		user = u
		return nil
	})
	return user, err
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Repos().Users.FindByID(ctx, id)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.Repos().Users.FindByEmail(ctx, validation.NormalizeEmail(email))
}

func (s *UserService) FindByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return s.store.Repos().Users.FindByNickname(ctx, nickname)
}

// FindByIDs loads users ordered by nickname; unknown IDs are skipped.
func (s *UserService) FindByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	return s.store.Repos().Users.FindByIDs(ctx, ids)
}

// RenameUser changes a nickname. Keeping the current nickname is a no-op.
func (s *UserService) RenameUser(ctx context.Context, userID uint, newNickname string) (*models.User, error) {
	if err := validation.Nickname(newNickname).Err("Invalid nickname"); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		u, err := r.Users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		if u.Nickname == newNickname {
			return nil
		}
		if err := ensureNicknameFree(ctx, r.Users, newNickname, userID); err != nil {
			return err
		}
		u.Nickname = newNickname
		return r.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies an edit-profile submission with rename semantics for the nickname.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Profile(in.Nickname, in.AboutMe).Err("Invalid profile"); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		u, err := r.Users.FindByID(ctx, in.UserID)
		if err != nil {
			return err
		}
		user = u
		if u.Nickname == in.Nickname && u.AboutMe == in.AboutMe {
			return nil
		}
		if u.Nickname != in.Nickname {
			if err := ensureNicknameFree(ctx, r.Users, in.Nickname, in.UserID); err != nil {
				return err
			}
		}
		u.Nickname = in.Nickname
		u.AboutMe = in.AboutMe
		return r.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResolveIdentity maps a provider identity to a user, registering it on first
// login. created reports whether a new user was made.
func (s *UserService) ResolveIdentity(ctx context.Context, email, suggestedNickname string) (*models.User, bool, error) {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return nil, false, models.NewFieldValidationError("Invalid login. Please try again.", map[string]string{
			"email": "Email is required",
		})
	}

	user, err := s.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, false, err
	}

	user, err = s.CreateUser(ctx, suggestedNickname, email)
	if errors.Is(err, models.ErrDuplicateEmail) {
		// Lost a race with a concurrent first login for the same address.
		user, err = s.FindByEmail(ctx, email)
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// TouchLastSeen records activity; a zero time means now.
func (s *UserService) TouchLastSeen(ctx context.Context, userID uint, at time.Time) error {
	if at.IsZero() {
		at = s.clock.NowUTC()
	}
	return s.store.Repos().Users.TouchLastSeen(ctx, userID, at)
}

func ensureNicknameFree(ctx context.Context, users repository.UserRepository, nickname string, userID uint) error {
	taken, err := users.NicknameExists(ctx, nickname, userID)
	if err != nil {
		return err
	}
	if taken {
		return models.NewNicknameTakenError(nickname)
	}
	return nil
}
