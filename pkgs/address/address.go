// Package address issues random disposable addresses for the catch-all
// domain and remembers which ones this process has handed out.
package address

import (
	"container/list"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
)

const (
	// LocalPartLength is the number of random characters before the '@'.
	LocalPartLength = 12

	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Registry generates addresses and records every address it has returned.
// It is safe for concurrent use. Nothing is persisted; a restart forgets
// all previously issued addresses.
type Registry struct {
	domain string

	// MaxEntries bounds the number of remembered addresses. Zero means
	// unbounded. When the bound is exceeded the oldest entry is forgotten.
	MaxEntries int

	mu     sync.Mutex
	issued map[string]*list.Element
	order  *list.List

	// random returns a uniformly random index in [0, n).
	random func(n int) (int, error)
}

// NewRegistry creates a registry issuing addresses at domain.
func NewRegistry(domain string) *Registry {
	return &Registry{
		domain: domain,
		issued: make(map[string]*list.Element),
		order:  list.New(),
		random: cryptoIndex,
	}
}

// Domain returns the domain addresses are issued for.
func (r *Registry) Domain() string {
	return r.domain
}

// Generate returns an address that this registry has not returned before
// and records it.
func (r *Registry) Generate() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		local, err := r.localPart()
		if err != nil {
			return "", fmt.Errorf("failed to generate local part: %w", err)
		}
		addr := local + "@" + r.domain
		if _, seen := r.issued[addr]; seen {
			continue
		}
		r.issued[addr] = r.order.PushBack(addr)
		r.evict()
		return addr, nil
	}
}

// Contains reports whether addr was issued by this registry and is still
// remembered.
func (r *Registry) Contains(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.issued[addr]
	return ok
}

// Len returns the number of remembered addresses.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issued)
}

// Valid reports whether addr is acceptable for mailbox lookups: it must
// contain an '@' and end with the configured domain.
func (r *Registry) Valid(addr string) bool {
	return Valid(addr, r.domain)
}

// Valid reports whether addr contains an '@' and ends with domain. The
// check is a plain suffix match.
func Valid(addr, domain string) bool {
	return strings.Contains(addr, "@") && strings.HasSuffix(addr, domain)
}

func (r *Registry) localPart() (string, error) {
	var b strings.Builder
	b.Grow(LocalPartLength)
	for i := 0; i < LocalPartLength; i++ {
		idx, err := r.random(len(alphabet))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx])
	}
	return b.String(), nil
}

// evict drops the oldest entries until the registry fits MaxEntries.
// Caller must hold r.mu.
func (r *Registry) evict() {
	if r.MaxEntries <= 0 {
		return
	}
	for r.order.Len() > r.MaxEntries {
		oldest := r.order.Front()
		r.order.Remove(oldest)
		delete(r.issued, oldest.Value.(string))
	}
}

func cryptoIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
