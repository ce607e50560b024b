package auth

import "github.com/angelmondragon/storefront-backend/internal/users"

// OTPRequest is the body of POST /api/auth/otp/request.
type OTPRequest struct {
	Username string `json:"username" validate:"required,max=150"`
}

// OTPVerifyRequest is the body of POST /api/auth/otp/verify.
type OTPVerifyRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// AuthenticateRequest carries the tokens a client wants checked.
type AuthenticateRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
}

type OTPIssued struct {
	Username  string `json:"username"`
	ExpiresIn int    `json:"expires_in"`
}

// LoginResponse is returned after a successful OTP verification.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// AuthenticateResponse flattens the user and adds tokens only when they were
// re-minted from the refresh token.
type AuthenticateResponse struct {
	users.UserDTO
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
