package models

import (
	"fmt"
	"strings"
)

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *AuthRequest) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email: %s", r.Email)
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
