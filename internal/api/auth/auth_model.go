package auth

// RegisterRequest represents the register request body. Validation tags are
// evaluated by the service so every violated field is reported, not just the
// first.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response body
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}
