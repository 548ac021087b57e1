package user

import "time"

type CreateUserRequest struct {
	Username          string `json:"username,omitempty" validate:"required,alphanum,max=64"`
	IsAdmin           bool   `json:"isAdmin,omitempty"`
	PlainTextPassword string `json:"-"                  validate:"required,min=8"`
}

// User is an operator of the ledger. Its username is recorded as the actor on the audit entries it causes.
type User struct {
	Username       string
	HashedPassword string `sensitive:"true"`
	IsAdmin        bool
	Created        time.Time
}
