package dto

import "time"

type LoginInput struct {
	Username string
	Password string
	Remember bool
}

type LoginOutput struct {
	Login     string
	ExpiresAt time.Time
}

type StatusInput struct {
	Verify bool
}

type StatusOutput struct {
	Authenticated bool
	Login         string
	Subject       string
	ExpiresAt     time.Time
	Expired       bool
	Verified      bool
	VerifyError   string
}
