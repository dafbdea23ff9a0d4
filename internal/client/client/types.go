package client

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Pending is the answer to signup and login: a 2FA code was sent to Email.
type Pending struct {
	Message       string `json:"message"`
	Email         string `json:"email"`
	TwoFARequired bool   `json:"twoFARequired"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Session is the answer to a successful 2FA verification.
type Session struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type messageResponse struct {
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message"`
}

type meResponse struct {
	User User `json:"user"`
}
