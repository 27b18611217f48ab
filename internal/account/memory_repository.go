package account

import (
	"context"
	"fmt"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	byNumber map[string]Account
	ids      map[string]string
}

// NewMemoryRepository constructs a concurrency-safe in-memory store, used in
// development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byNumber: make(map[string]Account),
		ids:      make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byNumber[acct.Number]; exists {
		return ErrDuplicate
	}
	if _, exists := r.ids[acct.ID]; exists {
		return ErrDuplicate
	}
	r.byNumber[acct.Number] = acct
	r.ids[acct.ID] = acct.Number
	return nil
}

func (r *memoryRepository) IdentifierExists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.ids[id]
	return exists, nil
}

func (r *memoryRepository) FindByNumber(_ context.Context, number string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byNumber[number]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) FindByCredentials(_ context.Context, number, pin string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byNumber[number]
	if !ok || acct.PIN != pin {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) Balance(_ context.Context, number string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byNumber[number]
	if !ok {
		return 0, ErrNotFound
	}
	return acct.Balance, nil
}

func (r *memoryRepository) Deposit(_ context.Context, number string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byNumber[number]
	if !ok {
		return 0, ErrNotFound
	}
	if !canCredit(acct.Balance, amount) {
		return 0, ErrBalanceOverflow
	}
	acct.Balance += amount
	r.byNumber[number] = acct
	return acct.Balance, nil
}

func (r *memoryRepository) Transfer(_ context.Context, from, to string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}
	if from == to {
		return TransferResult{}, fmt.Errorf("source and destination must differ")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.byNumber[from]
	if !ok {
		return TransferResult{}, ErrNotFound
	}
	dst, ok := r.byNumber[to]
	if !ok {
		return TransferResult{}, ErrNotFound
	}
	if src.Balance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}
	if !canCredit(dst.Balance, amount) {
		return TransferResult{}, ErrBalanceOverflow
	}

	src.Balance -= amount
	dst.Balance += amount
	r.byNumber[from] = src
	r.byNumber[to] = dst

	return TransferResult{FromBalance: src.Balance, ToBalance: dst.Balance}, nil
}

func (r *memoryRepository) Delete(_ context.Context, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byNumber[number]
	if !ok {
		return ErrNotFound
	}
	delete(r.byNumber, number)
	delete(r.ids, acct.ID)
	return nil
}
