package models

// Identity is the stable internal record for a rep or manager,
// resolved from a human-entered username or email.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`

	// PasswordHash is only populated by the store for login checks.
	PasswordHash string `json:"-"`
}

// Actor is the authenticated user on whose behalf a request runs.
// Services receive it explicitly; nothing is read from ambient state.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
