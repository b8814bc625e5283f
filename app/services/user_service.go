package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
)

// DefaultPassword is set on new users created without one.
const DefaultPassword = "password"

// UserInput is the user management form. Password is optional: empty keeps
// the current password on edit and sets DefaultPassword on create.
type UserInput struct {
	Name                 string    `form:"name"                  json:"name"                  validate:"required,between=2,100"`
	Phone                string    `form:"phone"                 json:"phone"                 validate:"required,max=20"`
	Email                string    `form:"email"                 json:"email"                 validate:"required,email,max=120"`
	Username             string    `form:"username"              json:"username"              validate:"required,between=2,80"`
	Role                 rbac.Role `form:"role"                  json:"role"                  validate:"required,min=1,max=2"`
	Password             string    `form:"password"              json:"password"              validate:"confirmed,max=128"`
	PasswordConfirmation string    `form:"password_confirmation" json:"password_confirmation"`
}

// UserInputFrom fills the form from an existing user.
func UserInputFrom(u models.User) UserInput {
	return UserInput{Name: u.Name, Phone: u.Phone, Email: u.Email, Username: u.Username, Role: u.Role}
}

// UserService manages Admin and Moderator accounts.
type UserService struct {
	db   *gorm.DB
	repo *repositories.UserRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, repo: repositories.NewUserRepository(db)}
}

// List returns the managed (non-SuperAdmin) users.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.Managed(ctx)
}

// Find returns user id or ErrNotFound.
func (s *UserService) Find(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Editable returns user id for editing. The SuperAdmin is refused with
// ErrSuperAdminProtected.
func (s *UserService) Editable(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsSuperAdmin() {
		return nil, ErrSuperAdminProtected
	}
	return u, nil
}

// Save creates (id == 0) or updates user id.
func (s *UserService) Save(ctx context.Context, id uint, in UserInput) (*models.User, error) {
	var target *models.User
	if id != 0 {
		var err error
		if target, err = s.Editable(ctx, id); err != nil {
			return nil, err
		}
	}

	errs := FieldErrors(validate.Struct(&in))
	if errs == nil {
		errs = FieldErrors{}
	}
	if _, bad := errs["role"]; !bad && !assignable(in.Role) {
		errs["role"] = "The selected role is invalid."
	}
	if _, bad := errs["username"]; !bad {
		if taken, err := s.repo.Taken(ctx, "username", in.Username, id); err == nil && taken {
			errs["username"] = "That username is already taken. Please choose a different one."
		}
	}
	if _, bad := errs["email"]; !bad {
		if taken, err := s.repo.Taken(ctx, "email", in.Email, id); err == nil && taken {
			errs["email"] = "That email is already in use. Please choose a different one."
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	u := models.User{}
	if target != nil {
		u = *target
	}
	u.Name, u.Phone, u.Email, u.Username, u.Role = in.Name, in.Phone, in.Email, in.Username, in.Role

	password := in.Password
	if password == "" && id == 0 {
		password = DefaultPassword
	}
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if id == 0 {
			return repo.Create(ctx, &u)
		}
		return repo.Update(ctx, &u)
	})
	if err != nil {
		err = conflict(err, "User", map[string]string{"username": in.Username, "email": in.Email}, "username", "email")
		if _, ok := AsConflict(err); !ok {
			logger.WithCtx(ctx).Error("user: save failed", "id", id, "error", err)
		}
		return nil, err
	}
	return &u, nil
}

// Delete removes user id. The SuperAdmin is refused.
func (s *UserService) Delete(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Editable(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	}); err != nil {
		logger.WithCtx(ctx).Error("user: delete failed", "id", id, "error", err)
		return nil, err
	}
	return u, nil
}

func assignable(r rbac.Role) bool {
	for _, a := range rbac.Assignable() {
		if a == r {
			return true
		}
	}
	return false
}
