package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// HashCost is the bcrypt work factor used for every stored password.
const HashCost = 10

// Hasher hashes and verifies passwords with bcrypt. At most `workers`
// hashing operations run at once; other callers wait on their context.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher returns a Hasher that runs at most workers bcrypt operations
// concurrently. workers below 1 is treated as 1.
func NewHasher(workers int) *Hasher {
	if workers < 1 {
		workers = 1
	}
	return &Hasher{cost: HashCost, sem: semaphore.NewWeighted(int64(workers))}
}

// Hash returns a salted bcrypt hash of plaintext. Two calls with the same
// input return different hashes.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	pw := []byte(plaintext)
	defer common.WipeByteArray(pw)

	hash, err := bcrypt.GenerateFromPassword(pw, h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A mismatch or a malformed
// hash yields false with a nil error; the error is only set when ctx ends
// before a worker slot frees up.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	pw := []byte(plaintext)
	defer common.WipeByteArray(pw)

	return bcrypt.CompareHashAndPassword([]byte(hash), pw) == nil, nil
}

// VerifyDummy burns the same work as a Verify against a real hash and
// always reports false. Login uses it for unknown emails.
func (h *Hasher) VerifyDummy(ctx context.Context, plaintext string) (bool, error) {
	h.dummyOnce.Do(func() {
		seed, err := common.MakeRandHexString(16)
		if err != nil {
			seed = "dummy-password-seed"
		}
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte(seed), h.cost)
	})

	_, err := h.Verify(ctx, plaintext, string(h.dummy))
	return false, err
}
