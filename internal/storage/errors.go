package storage

import appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"

var (
	errUserNotFound = appErrors.ErrorResponse{
		Code:    appErrors.ErrNotFound,
		Message: "The user does not exist.",
	}
	errEmailTaken = appErrors.ErrorResponse{
		Code:    appErrors.ErrConflict,
		Message: "This email address is already registered.",
	}
	errExpenseNotFound = appErrors.ErrorResponse{
		Code:    appErrors.ErrNotFound,
		Message: "The expense does not exist.",
	}
	errOwnerNotFound = appErrors.ErrorResponse{
		Code:    appErrors.ErrInvalidInput,
		Message: "The owner of the expense does not exist.",
	}
)

func internalError(message string) error {
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: message,
	}
}
