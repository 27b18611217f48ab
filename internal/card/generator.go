package card

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
)

const (
	// MinIdentifier and MaxIdentifier bound the identifier space.
	MinIdentifier int64 = 100000000
	MaxIdentifier int64 = 999999999

	defaultMaxAttempts = 1000
	minPIN             = 1000
	maxPIN             = 9999
)

// ErrIdentifierSpaceExhausted is returned when every identifier in the range is taken.
var ErrIdentifierSpaceExhausted = errors.New("identifier space exhausted")

// IdentifierChecker reports whether an identifier is assigned to a live account.
type IdentifierChecker interface {
	IdentifierExists(ctx context.Context, id string) (bool, error)
}

// Options tunes a Generator. Zero values select the defaults.
type Options struct {
	Min         int64
	Max         int64
	MaxAttempts int
	// Rand overrides the random source, mostly for deterministic tests.
	Rand *rand.Rand
}

// Generator allocates account identifiers, card numbers and PINs.
type Generator struct {
	checker     IdentifierChecker
	min         int64
	max         int64
	maxAttempts int

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator builds a generator that checks candidates against checker.
func NewGenerator(checker IdentifierChecker, opts Options) (*Generator, error) {
	if checker == nil {
		return nil, fmt.Errorf("identifier checker is required")
	}
	g := &Generator{
		checker:     checker,
		min:         opts.Min,
		max:         opts.Max,
		maxAttempts: opts.MaxAttempts,
		rnd:         opts.Rand,
	}
	if g.min == 0 && g.max == 0 {
		g.min, g.max = MinIdentifier, MaxIdentifier
	}
	if g.min < MinIdentifier || g.max > MaxIdentifier || g.min > g.max {
		return nil, fmt.Errorf("identifier range [%d, %d] outside [%d, %d]", g.min, g.max, MinIdentifier, MaxIdentifier)
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = defaultMaxAttempts
	}
	return g, nil
}

// GenerateIdentifier returns a 9 digit identifier not assigned to any live
// account. Random draws are capped at MaxAttempts; after that the range is
// scanned from a random starting point so the call always terminates.
func (g *Generator) GenerateIdentifier(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := format(g.min + g.int64N(g.max-g.min+1))
		exists, err := g.checker.IdentifierExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check identifier: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return g.scan(ctx)
}

func (g *Generator) scan(ctx context.Context) (string, error) {
	span := g.max - g.min + 1
	start := g.int64N(span)
	for i := int64(0); i < span; i++ {
		candidate := format(g.min + (start+i)%span)
		exists, err := g.checker.IdentifierExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check identifier: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrIdentifierSpaceExhausted
}

// GeneratePIN returns a random 4 digit PIN.
func (g *Generator) GeneratePIN() string {
	return strconv.FormatInt(minPIN+g.int64N(maxPIN-minPIN+1), 10)
}

func (g *Generator) int64N(n int64) int64 {
	if g.rnd == nil {
		return rand.Int64N(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Int64N(n)
}

func format(id int64) string {
	return fmt.Sprintf("%0*d", IdentifierLength, id)
}
