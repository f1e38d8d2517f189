package accounts

import "github.com/mtlprog/taskflow/internal/kernel"

var (
	ErrNotFound           = kernel.NotFound("User.NotFound", "The user was not found.")
	ErrEmailExists        = kernel.Conflict("User.EmailExists", "A user with this email already exists.")
	ErrInvalidCredentials = kernel.Unauthorized("User.InvalidCredentials", "Invalid email or password.")
	ErrInactive           = kernel.Forbidden("User.Inactive", "This account has been deactivated.")
	ErrInvalidToken       = kernel.Unauthorized("User.InvalidToken", "The access token is invalid or expired.")

	ErrEmailEmpty          = kernel.Validation("Email.Empty", "Email is required.")
	ErrEmailInvalid        = kernel.Validation("Email.Invalid", "Email format is invalid.")
	ErrPasswordEmpty       = kernel.Validation("Password.Empty", "Password is required.")
	ErrPasswordTooShort    = kernel.Validation("Password.TooShort", "Password must be at least 8 characters.")
	ErrPasswordNoUppercase = kernel.Validation("Password.NoUppercase", "Password must contain at least one uppercase letter.")
	ErrPasswordNoDigit     = kernel.Validation("Password.NoDigit", "Password must contain at least one digit.")
	ErrFirstNameEmpty      = kernel.Validation("FullName.FirstNameEmpty", "First name is required.")
	ErrLastNameEmpty       = kernel.Validation("FullName.LastNameEmpty", "Last name is required.")
)
