package storage

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
)

// dbTimeLayout has a fixed-width fraction so stored values sort as text.
const dbTimeLayout = "2006-01-02 15:04:05.000"

var dbTimeParseLayouts = []string{
	dbTimeLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// dbTime scans a timestamp whether the driver hands back time.Time or text.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range dbTimeParseLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t dbTime) Value() (driver.Value, error) {
	return t.UTC().Format(dbTimeLayout), nil
}

type dbUser struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    dbTime
}

func (u dbUser) toUser() auth.User {
	return auth.User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		PasswordHashed: u.PasswordHash,
		CreatedAt:      u.CreatedAt.Time,
	}
}

type dbExpense struct {
	ID          string
	OwnerID     string
	AmountCents int64
	SpentAt     dbTime
	Category    string
	Note        string
	CreatedAt   dbTime
	UpdatedAt   dbTime
}

func (e dbExpense) toExpense() expense.Expense {
	return expense.Expense{
		ID:        e.ID,
		Amount:    money.FromCents(e.AmountCents),
		Date:      e.SpentAt.Time,
		Category:  e.Category,
		Note:      e.Note,
		OwnerID:   e.OwnerID,
		CreatedAt: e.CreatedAt.Time,
		UpdatedAt: e.UpdatedAt.Time,
	}
}
