package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/agnivade/levenshtein"
)

// Verdict is the outcome of checking one code.
type Verdict struct {
	OK bool
	// Distance is the edit distance to the expected code, or -1 when the
	// verifier has nothing to compare against.
	Distance int
}

// Verifier checks a filled code. Implementations must return ctx.Err() when
// the context ends first.
type Verifier interface {
	Verify(ctx context.Context, code string) (Verdict, error)
}

// SimulatedVerifier stands in for a remote check: it waits Delay and then
// passes when a draw in [0, 10] is at least 5.
type SimulatedVerifier struct {
	Delay time.Duration
	// Draw overrides the random draw.
	Draw func() int
}

func (v *SimulatedVerifier) Verify(ctx context.Context, code string) (Verdict, error) {
	if err := wait(ctx, v.Delay); err != nil {
		return Verdict{}, err
	}
	draw := v.Draw
	if draw == nil {
		draw = func() int { return rand.IntN(11) }
	}
	return Verdict{OK: draw() >= 5, Distance: -1}, nil
}

// ExpectedCodeVerifier accepts exactly one code and reports how far off
// other codes are.
type ExpectedCodeVerifier struct {
	Expected string
	Delay    time.Duration
}

func (v *ExpectedCodeVerifier) Verify(ctx context.Context, code string) (Verdict, error) {
	if err := wait(ctx, v.Delay); err != nil {
		return Verdict{}, err
	}
	return Verdict{
		OK:       code == v.Expected,
		Distance: levenshtein.ComputeDistance(code, v.Expected),
	}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
