package card

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"
)

type fakeChecker struct {
	mu    sync.Mutex
	taken map[string]bool
	calls int
	err   error
}

func newFakeChecker(ids ...string) *fakeChecker {
	c := &fakeChecker{taken: make(map[string]bool)}
	for _, id := range ids {
		c.taken[id] = true
	}
	return c
}

func (c *fakeChecker) IdentifierExists(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.taken[id], nil
}

func TestGenerateIdentifierFormat(t *testing.T) {
	gen, err := NewGenerator(newFakeChecker(), Options{Rand: rand.New(rand.NewPCG(7, 7))})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	for i := 0; i < 100; i++ {
		id, err := gen.GenerateIdentifier(context.Background())
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(id) != IdentifierLength {
			t.Fatalf("expected %d digits, got %q", IdentifierLength, id)
		}
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n < MinIdentifier || n > MaxIdentifier {
			t.Fatalf("identifier %q outside range", id)
		}
	}
}

func TestGenerateIdentifierSkipsLiveIdentifiers(t *testing.T) {
	checker := newFakeChecker("100000000", "100000001", "100000003")
	gen, err := NewGenerator(checker, Options{Min: 100000000, Max: 100000003, Rand: rand.New(rand.NewPCG(3, 4))})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	for i := 0; i < 20; i++ {
		id, err := gen.GenerateIdentifier(context.Background())
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if id != "100000002" {
			t.Fatalf("expected the only free identifier 100000002, got %s", id)
		}
	}
}

func TestGenerateIdentifierFallsBackToScan(t *testing.T) {
	checker := newFakeChecker("100000000", "100000001", "100000002")
	gen, err := NewGenerator(checker, Options{Min: 100000000, Max: 100000003, MaxAttempts: 1, Rand: rand.New(rand.NewPCG(1, 1))})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	id, err := gen.GenerateIdentifier(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if id != "100000003" {
		t.Fatalf("expected 100000003, got %s", id)
	}
	// one random draw plus at most one full pass
	if checker.calls > 5 {
		t.Fatalf("expected at most 5 lookups, got %d", checker.calls)
	}
}

func TestGenerateIdentifierExhausted(t *testing.T) {
	checker := newFakeChecker("100000000", "100000001")
	gen, err := NewGenerator(checker, Options{Min: 100000000, Max: 100000001, MaxAttempts: 10})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if _, err := gen.GenerateIdentifier(context.Background()); !errors.Is(err, ErrIdentifierSpaceExhausted) {
		t.Fatalf("expected ErrIdentifierSpaceExhausted, got %v", err)
	}
	if checker.calls != 12 {
		t.Fatalf("expected 10 draws and a 2 slot scan, got %d lookups", checker.calls)
	}
}

func TestGenerateIdentifierPropagatesStoreErrors(t *testing.T) {
	checker := newFakeChecker()
	checker.err = errors.New("connection reset")
	gen, err := NewGenerator(checker, Options{})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if _, err := gen.GenerateIdentifier(context.Background()); !errors.Is(err, checker.err) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestNewGeneratorValidatesRange(t *testing.T) {
	if _, err := NewGenerator(newFakeChecker(), Options{Min: 5, Max: 10}); err == nil {
		t.Fatal("expected error for range below 9 digits")
	}
	if _, err := NewGenerator(newFakeChecker(), Options{Min: 200000000, Max: 100000000}); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, err := NewGenerator(nil, Options{}); err == nil {
		t.Fatal("expected error for missing checker")
	}
}

func TestGeneratePIN(t *testing.T) {
	gen, err := NewGenerator(newFakeChecker(), Options{})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	for i := 0; i < 500; i++ {
		pin := gen.GeneratePIN()
		if len(pin) != 4 {
			t.Fatalf("expected 4 digit PIN, got %q", pin)
		}
		n, err := strconv.Atoi(pin)
		if err != nil || n < 1000 || n > 9999 {
			t.Fatalf("PIN %q outside range", pin)
		}
	}
}
