package account

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func seed(t *testing.T, repo Repository, id, number string, balance int64) {
	t.Helper()
	if err := repo.Create(context.Background(), Account{ID: id, Number: number, PIN: "1234", Balance: balance}); err != nil {
		t.Fatalf("create %s: %v", number, err)
	}
}

func TestMemoryRepository_CreateRejectsDuplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "4000001000000011", 0)

	if err := repo.Create(ctx, Account{ID: "100000001", Number: "4000001000000029"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate identifier error, got %v", err)
	}
	if err := repo.Create(ctx, Account{ID: "100000002", Number: "4000001000000011"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate number error, got %v", err)
	}

	exists, err := repo.IdentifierExists(ctx, "100000001")
	if err != nil || !exists {
		t.Fatalf("expected identifier to exist, got %v %v", exists, err)
	}
}

func TestMemoryRepository_FindByCredentials(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "4000001000000011", 0)

	if _, err := repo.FindByCredentials(ctx, "4000001000000011", "1234"); err != nil {
		t.Fatalf("find by credentials: %v", err)
	}
	if _, err := repo.FindByCredentials(ctx, "4000001000000011", "9999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for wrong pin, got %v", err)
	}
	if _, err := repo.FindByCredentials(ctx, "4000009999999999", "1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown card, got %v", err)
	}
}

func TestMemoryRepository_TransferMaintainsBalance(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "a", 10_000)
	seed(t, repo, "100000002", "b", 0)

	res, err := repo.Transfer(ctx, "a", "b", 1_500)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if res.FromBalance != 8_500 || res.ToBalance != 1_500 {
		t.Fatalf("unexpected balances: %+v", res)
	}

	a, _ := repo.Balance(ctx, "a")
	b, _ := repo.Balance(ctx, "b")
	if a+b != 10_000 {
		t.Fatalf("ledger not balanced, total=%d", a+b)
	}
}

func TestMemoryRepository_TransferInsufficientFunds(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "a", 100)
	seed(t, repo, "100000002", "b", 5)

	if _, err := repo.Transfer(ctx, "a", "b", 101); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	a, _ := repo.Balance(ctx, "a")
	b, _ := repo.Balance(ctx, "b")
	if a != 100 || b != 5 {
		t.Fatalf("balances changed after rejected transfer: a=%d b=%d", a, b)
	}
}

func TestMemoryRepository_TransferUnknownAccount(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "a", 100)

	if _, err := repo.Transfer(ctx, "a", "missing", 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if bal, _ := repo.Balance(ctx, "a"); bal != 100 {
		t.Fatalf("expected balance untouched, got %d", bal)
	}
}

func TestMemoryRepository_ConcurrentTransfers(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "a", 100_000)
	seed(t, repo, "100000002", "b", 0)

	const workers = 10
	const amount = int64(500)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "a", "b"
			if i%2 == 1 {
				from, to = "b", "a"
			}
			if _, err := repo.Transfer(ctx, from, to, amount); err != nil && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	a, _ := repo.Balance(ctx, "a")
	b, _ := repo.Balance(ctx, "b")
	if a+b != 100_000 {
		t.Fatalf("ledger not balanced after concurrency, total=%d", a+b)
	}
	if a < 0 || b < 0 {
		t.Fatalf("negative balance a=%d b=%d", a, b)
	}
}

func TestMemoryRepository_DeleteFreesIdentifier(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "a", 50)

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByNumber(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if exists, _ := repo.IdentifierExists(ctx, "100000001"); exists {
		t.Fatal("expected identifier to be released after delete")
	}
	if err := repo.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestMemoryRepository_CreditNeverOverflows(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "100000001", "a", math.MaxInt64)
	seed(t, repo, "100000002", "b", 100)

	if _, err := repo.Deposit(ctx, "a", 10); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected overflow on deposit, got %v", err)
	}
	if _, err := repo.Transfer(ctx, "b", "a", 50); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected overflow on transfer, got %v", err)
	}

	a, _ := repo.Balance(ctx, "a")
	b, _ := repo.Balance(ctx, "b")
	if a != math.MaxInt64 || b != 100 {
		t.Fatalf("balances changed after rejected credit: a=%d b=%d", a, b)
	}

	// crediting up to the limit exactly is still allowed
	if bal, err := repo.Deposit(ctx, "b", math.MaxInt64-100); err != nil || bal != math.MaxInt64 {
		t.Fatalf("expected deposit to the limit, got %d (%v)", bal, err)
	}
}
