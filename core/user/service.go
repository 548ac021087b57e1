package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/core"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidRequest = errors.New("user: invalid request")
	ErrBadCredentials = errors.New("user: bad credentials")
)

var validate = validator.New()

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type Service interface {
	Create(ctx context.Context, user CreateUserRequest) (User, error)
	Get(ctx context.Context, username string) (User, error)
	Delete(ctx context.Context, username string) error
	Login(ctx context.Context, username, password string) (User, error)
}

type service struct {
	repo Repository
}

func (s *service) Get(ctx context.Context, username string) (User, error) {
	return s.repo.Get(ctx, username)
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (User, error) {
	if err := validate.Struct(req); err != nil {
		return User{}, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PlainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return User{}, errors.WithStack(err)
	}
	user := &User{
		Username:       req.Username,
		HashedPassword: string(hash),
		IsAdmin:        req.IsAdmin,
		Created:        time.Now(),
	}
	err = s.repo.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	return *user, nil
}

func (s *service) Delete(ctx context.Context, username string) error {
	return s.repo.Delete(ctx, username)
}

// Login reports an unknown user and a wrong password the same way.
func (s *service) Login(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return User{}, errors.WithStack(ErrBadCredentials)
		}
		return User{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
	if err != nil {
		return User{}, errors.WithStack(ErrBadCredentials)
	}

	return u, nil
}

type Repository interface {
	Create(ctx context.Context, user *User, options ...core.UpdateOptions) error
	Get(ctx context.Context, username string, options ...core.QueryOptions) (User, error)
	Delete(ctx context.Context, username string, options ...core.UpdateOptions) error
}
