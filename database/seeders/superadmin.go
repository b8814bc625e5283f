package seeders

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
)

// SuperAdminOptions are the bootstrap account credentials.
type SuperAdminOptions struct {
	Username string
	Email    string
	Password string
}

// SuperAdminFromConfig reads SUPERADMIN_USERNAME, SUPERADMIN_EMAIL and
// SUPERADMIN_PASSWORD.
func SuperAdminFromConfig() SuperAdminOptions {
	return SuperAdminOptions{
		Username: config.SuperAdminUsername(),
		Email:    config.SuperAdminEmail(),
		Password: config.SuperAdminPassword(),
	}
}

// SeedSuperAdmin creates the SuperAdmin unless a user with opts.Username
// already exists. created is false when nothing was inserted.
func SeedSuperAdmin(ctx context.Context, db *gorm.DB, opts SuperAdminOptions) (created bool, err error) {
	if opts.Username == "" || opts.Email == "" || opts.Password == "" {
		return false, errors.New("seeders: superadmin username, email and password are required")
	}

	var existing models.User
	err = db.WithContext(ctx).Where("username = ?", opts.Username).First(&existing).Error
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("seeders: look up superadmin: %w", err)
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return false, err
	}
	u := models.User{
		Role:         rbac.SuperAdmin,
		Name:         "System Superadmin",
		Phone:        "0000000000",
		Email:        opts.Email,
		Username:     opts.Username,
		PasswordHash: hash,
	}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		return false, fmt.Errorf("seeders: create superadmin: %w", err)
	}
	return true, nil
}

// SuperAdmin wraps SeedSuperAdmin as a SeederFunc.
func SuperAdmin(opts SuperAdminOptions) SeederFunc {
	return func(ctx context.Context, db *gorm.DB, out io.Writer) error {
		created, err := SeedSuperAdmin(ctx, db, opts)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "SuperAdmin '%s' created … ", opts.Username)
		} else {
			fmt.Fprint(out, "SuperAdmin already exists … ")
		}
		return nil
	}
}
