package types

// Identity is the user-identity payload stored next to the credential
type Identity struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// ErrorResponse is the JSON error envelope of the API
type ErrorResponse struct {
	Error string `json:"error"`
}
