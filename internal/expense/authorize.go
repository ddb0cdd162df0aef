package expense

import (
	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
)

var (
	ErrExpenseNotFound = appErrors.ErrorResponse{
		Code:    appErrors.ErrNotFound,
		Message: "The expense does not exist.",
	}
	ErrNotOwner = appErrors.ErrorResponse{
		Code:    appErrors.ErrAccessDenied,
		Message: "You can only access your own expenses.",
	}
)

// Authorize decides whether principal may read or change expense. A nil
// expense means the lookup found nothing and is reported before ownership.
func Authorize(expense *Expense, principal auth.Principal) error {
	if expense == nil {
		return ErrExpenseNotFound
	}
	if expense.OwnerID != principal.UserID {
		return ErrNotOwner
	}
	return nil
}
