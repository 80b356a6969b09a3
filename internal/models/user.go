package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `db:"id"`
	Email       string    `db:"email"`
	Password    string    `db:"password"`
	Name        string    `db:"name"`
	Phone       string    `db:"phone"`
	Address     string    `db:"address"`
	DateOfBirth string    `db:"date_of_birth"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
