package auth

import (
	"fmt"
	"regexp"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
)

const (
	MAX_LENGTH_NAME     = 255
	MAX_LENGTH_EMAIL    = 255
	MIN_PASSWORD_LENGTH = 6
	MAX_PASSWORD_LENGTH = 72
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9](\.?[a-zA-Z0-9_%+-])*@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}$`)

type User struct {
	ID             string
	Email          string
	Name           string
	PasswordHashed string
	CreatedAt      time.Time
}

type NewUser struct {
	Email         string
	Name          string
	PasswordPlain string
}

// Principal is the identity resolved from a verified session token. It lives
// for one request and is passed explicitly to everything that needs it.
type Principal struct {
	UserID string
	Email  string
}

func (newUser NewUser) ValidateUserFields() error {
	if err := validateEmail(newUser.Email); err != nil {
		return err
	}
	if len(newUser.Name) > MAX_LENGTH_NAME {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Name so long, maximum length is %d", MAX_LENGTH_NAME),
		}
	}
	if newUser.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Password cannot be empty!",
		}
	}
	if len(newUser.PasswordPlain) < MIN_PASSWORD_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Password must be at least %d characters long", MIN_PASSWORD_LENGTH),
		}
	}
	if len(newUser.PasswordPlain) > MAX_PASSWORD_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Password so long, maximum length is %d", MAX_PASSWORD_LENGTH),
		}
	}
	return nil
}

type UserCredentialsPure struct {
	Email         string
	PasswordPlain string
}

// Validate only checks shape. Whether the credentials are right is decided by
// the login flow, which never says which half was wrong.
func (credentials UserCredentialsPure) Validate() error {
	if err := validateEmail(credentials.Email); err != nil {
		return err
	}
	if credentials.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Password cannot be empty!",
		}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Email cannot be empty!",
		}
	}
	if len(email) > MAX_LENGTH_EMAIL {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Email so long, maximum length is %d", MAX_LENGTH_EMAIL),
		}
	}
	if !emailRegex.MatchString(email) {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Invalid email format, example valid email: john.doe@gmail.com",
		}
	}
	return nil
}
