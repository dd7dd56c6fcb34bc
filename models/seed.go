package models

import (
	"errors"

	"gorm.io/gorm"

	"blogd/utils"
)

// EnsureAdmin creates the bootstrap admin account when no account with the
// given email exists. It is an idempotent migration step run at startup and
// is not part of the authorization logic itself.
func EnsureAdmin(db *gorm.DB, name, email, phone, password string) error {
	if email == "" || password == "" {
		return errors.New("admin email and password must be configured")
	}

	var existing User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	return db.Create(&admin).Error
}
