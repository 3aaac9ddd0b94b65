package injection

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Tracker assigns stable, content-addressed region ids across edits: a
// region whose (language, content hash) matches one seen on the
// previous parse keeps its id; anything new gets a freshly minted ULID.
// ULIDs are lexicographically sortable by creation time, so a region's
// id also records roughly when it was first discovered, useful for
// cache/log correlation without a separate timestamp field.
type Tracker struct {
	mu sync.Mutex

	entropy *ulid.MonotonicEntropy

	// byURI holds, for each open document, the identity->id mapping
	// from its most recent Assign call.
	byURI map[string]map[regionIdentity]string
}

type regionIdentity struct {
	languageID string
	hash       uint64
}

// NewTracker creates a Tracker with its own monotonic entropy source so
// ids generated in the same millisecond still sort deterministically.
func NewTracker() *Tracker {
	seed := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Tracker{
		entropy: ulid.Monotonic(seed, 0),
		byURI:   make(map[string]map[regionIdentity]string),
	}
}

// Assign walks regions in place, filling in RegionID for each: reused
// from the previous parse of uri when (language, content hash) matches,
// freshly generated otherwise. Returns the set of ids from the previous
// parse that were not reused this time, so callers can invalidate their
// caches for regions that disappeared or changed.
func (t *Tracker) Assign(uri string, regions []Region) (retired []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.byURI[uri]
	next := make(map[regionIdentity]string, len(regions))
	seen := make(map[string]bool, len(regions))

	for i := range regions {
		id := regionIdentity{languageID: regions[i].LanguageID, hash: regions[i].ContentHash}
		if existing, ok := prev[id]; ok && !seen[existing] {
			regions[i].RegionID = existing
			seen[existing] = true
		} else {
			regions[i].RegionID = t.newULID()
		}
		next[id] = regions[i].RegionID
	}

	for _, oldID := range prev {
		if !seen[oldID] {
			retired = append(retired, oldID)
		}
	}

	t.byURI[uri] = next
	return retired
}

// Forget drops all tracked identities for uri (document closed).
func (t *Tracker) Forget(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byURI, uri)
}

func (t *Tracker) newULID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), t.entropy)
	return id.String()
}

// HashContent returns the FNV-1a hash of b, used as the stable-identity
// key alongside a region's language id.
func HashContent(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
