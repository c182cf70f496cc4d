package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/jask/otpfield/internal/database"
	"github.com/jask/otpfield/internal/database/repository"
	"github.com/jask/otpfield/internal/secrets"
)

// Source tells where a filled code came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceClipboard Source = "clipboard"
	SourceSMS       Source = "sms"
)

// Result is a verdict plus the id of the recorded attempt.
type Result struct {
	AttemptID string
	Verdict   Verdict
}

// VerificationService verifies filled codes and records each attempt.
// Attempts is optional.
type VerificationService struct {
	Verifier Verifier
	Attempts *repository.AttemptRepo
	// Key keys the code digest; at most 64 bytes.
	Key []byte
	Log *slog.Logger

	mu sync.RWMutex // guards Key once verifications run in the background
}

// Verify runs the verifier and records the attempt. A failure to record is
// logged and does not change the result.
func (s *VerificationService) Verify(ctx context.Context, code string, src Source, generation uint64) (Result, error) {
	if s.Verifier == nil {
		return Result{}, fmt.Errorf("verification: verifier not configured")
	}
	verdict, err := s.Verifier.Verify(ctx, code)
	if err != nil {
		return Result{}, fmt.Errorf("verify code: %w", err)
	}

	res := Result{AttemptID: uuid.NewString(), Verdict: verdict}
	log := s.logger().With("attempt", res.AttemptID, "source", string(src), "ok", verdict.OK)
	if verdict.Distance > 0 {
		log = log.With("distance", verdict.Distance)
	}

	if s.Attempts != nil {
		a := repository.Attempt{
			ID:         res.AttemptID,
			CodeDigest: s.Digest(code),
			Source:     string(src),
			OK:         verdict.OK,
			Generation: int64(generation),
			CreatedAt:  database.Now(),
		}
		if verdict.Distance >= 0 {
			d := verdict.Distance
			a.Distance = &d
		}
		if err := s.Attempts.Insert(ctx, a); err != nil {
			log.Warn("record attempt", "err", err)
		}
	}
	log.Info("code verified")
	return res, nil
}

// Stats summarises recorded attempts. Without a repository it is empty.
func (s *VerificationService) Stats(ctx context.Context) (repository.AttemptStats, error) {
	if s.Attempts == nil {
		return repository.AttemptStats{}, nil
	}
	return s.Attempts.Stats(ctx)
}

// Recent lists the newest recorded attempts. Without a repository it is empty.
func (s *VerificationService) Recent(ctx context.Context, n int) ([]repository.Attempt, error) {
	if s.Attempts == nil {
		return nil, nil
	}
	return s.Attempts.List(ctx, n)
}

// SetKey swaps the digest key; verifications already running may still use
// the old one.
func (s *VerificationService) SetKey(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Key = key
}

// RotateKey stores a fresh digest key, so digests recorded before can no
// longer be matched against new codes.
func (s *VerificationService) RotateKey() error {
	key, err := secrets.RotateKey(secrets.DigestKey, secrets.DigestKeySize)
	if err != nil {
		return fmt.Errorf("rotate digest key: %w", err)
	}
	s.SetKey(key)
	s.logger().Info("digest key rotated")
	return nil
}

// Digest is the hex BLAKE2b-256 of code keyed with Key.
func (s *VerificationService) Digest(code string) string {
	s.mu.RLock()
	key := s.Key
	s.mu.RUnlock()

	h, err := blake2b.New256(key)
	if err != nil {
		// key longer than 64 bytes
		sum := blake2b.Sum256(append(append([]byte{}, key...), code...))
		return hex.EncodeToString(sum[:])
	}
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *VerificationService) logger() *slog.Logger {
	if s.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Log
}
