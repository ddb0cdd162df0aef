package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
)

const StorageTypeMemory = "inmemory"

// InMemoryStorage keeps everything in maps guarded by one lock. Data is lost
// when the process exits.
type InMemoryStorage struct {
	mu         sync.RWMutex
	users      map[string]auth.User
	emailIndex map[string]string
	expenses   map[string]expense.Expense
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		users:      make(map[string]auth.User),
		emailIndex: make(map[string]string),
		expenses:   make(map[string]expense.Expense),
	}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return StorageTypeMemory
}

func (inMem *InMemoryStorage) Close() error {
	return nil
}

func (inMem *InMemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (inMem *InMemoryStorage) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	id, ok := inMem.emailIndex[email]
	if !ok {
		return auth.User{}, errUserNotFound
	}
	return inMem.users[id], nil
}

func (inMem *InMemoryStorage) FindUserByID(ctx context.Context, userID string) (auth.User, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	user, ok := inMem.users[userID]
	if !ok {
		return auth.User{}, errUserNotFound
	}
	return user, nil
}

func (inMem *InMemoryStorage) CreateUser(ctx context.Context, user auth.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	if _, taken := inMem.emailIndex[user.Email]; taken {
		return errEmailTaken
	}
	inMem.users[user.ID] = user
	inMem.emailIndex[user.Email] = user.ID
	return nil
}

func (inMem *InMemoryStorage) FindExpenseByID(ctx context.Context, expenseID string) (expense.Expense, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	e, ok := inMem.expenses[expenseID]
	if !ok {
		return expense.Expense{}, errExpenseNotFound
	}
	return e, nil
}

func (inMem *InMemoryStorage) ListExpensesForUser(ctx context.Context, ownerID string, filter expense.ListFilter) ([]expense.Expense, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	result := []expense.Expense{}
	for _, e := range inMem.expenses {
		if e.OwnerID != ownerID {
			continue
		}
		if filter.StartDate != nil && e.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && e.Date.After(*filter.EndDate) {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		if filter.Ascending {
			return expenseBefore(result[i], result[j])
		}
		return expenseBefore(result[j], result[i])
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// expenseBefore orders by date, then creation time, then id, the same as the
// SQL stores do.
func expenseBefore(a, b expense.Expense) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (inMem *InMemoryStorage) CreateExpense(ctx context.Context, e expense.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	if _, ok := inMem.users[e.OwnerID]; !ok {
		return errOwnerNotFound
	}
	inMem.expenses[e.ID] = e
	return nil
}

func (inMem *InMemoryStorage) UpdateExpense(ctx context.Context, e expense.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	stored, ok := inMem.expenses[e.ID]
	if !ok || stored.OwnerID != e.OwnerID {
		return errExpenseNotFound
	}
	e.CreatedAt = stored.CreatedAt
	inMem.expenses[e.ID] = e
	return nil
}

func (inMem *InMemoryStorage) DeleteExpense(ctx context.Context, ownerID string, expenseID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	stored, ok := inMem.expenses[expenseID]
	if !ok || stored.OwnerID != ownerID {
		return errExpenseNotFound
	}
	delete(inMem.expenses, expenseID)
	return nil
}
