// Package dialog implements the confirmation dialogue between Hibiki and one
// user: the short stateful protocol that parks a validated command, asks for
// a yes/no, and resolves the next utterance against it.
//
// Pending confirmations are owned by a Session, one per conversation, so a
// host serving several users never leaks a parked command across
// conversations. The session is the only mutable shared state in the
// interpretation core.
package dialog

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"hibiki/internal/intent"
)

// DefaultTTL is how long a parked command waits for a yes/no before it is
// evicted. Pass NoExpiry to Session to keep records indefinitely.
const DefaultTTL = 5 * time.Minute

// NoExpiry disables time-based eviction of pending confirmations.
const NoExpiry = time.Duration(-1)

// Pending is a parked, validated-but-unexecuted command awaiting explicit
// user approval.
type Pending struct {
	// ID uniquely identifies the record.
	ID string
	// Command is the classification that was held back for confirmation.
	Command *intent.Classification
	// CreatedAt orders records; resolution always picks the newest.
	CreatedAt time.Time

	// seq breaks ordering ties between records parked within the clock's
	// resolution.
	seq uint64
}

// Outcome is the result of testing an utterance against a session's pending
// confirmations.
type Outcome int

const (
	// OutcomeNone means the utterance was neither a clear yes nor a clear
	// no (or nothing was pending); the caller should treat it as a brand
	// new command and leave any pending record untouched.
	OutcomeNone Outcome = iota
	// OutcomeConfirmed means the newest pending record was approved and
	// removed; its command should now be executed.
	OutcomeConfirmed
	// OutcomeCancelled means the newest pending record was discarded
	// without execution.
	OutcomeCancelled
)

// affirmativeWords are single-token cues meaning "yes, proceed".
var affirmativeWords = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {},
	"ok": {}, "okay": {}, "confirm": {}, "affirmative": {}, "correct": {},
}

// affirmativePhrases are multi-word cues matched as substrings.
var affirmativePhrases = []string{"go ahead", "do it", "sounds good"}

// negativeWords are single-token cues meaning "no, cancel".
var negativeWords = map[string]struct{}{
	"no": {}, "nope": {}, "nah": {}, "cancel": {},
	"nevermind": {}, "abort": {}, "stop": {}, "negative": {},
}

var negativePhrases = []string{"never mind", "forget it"}

// Session holds the pending confirmations for a single conversation. It is
// safe for concurrent use, though the engine serializes utterances anyway.
type Session struct {
	mu      sync.Mutex
	pending map[string]*Pending
	ttl     time.Duration
	now     func() time.Time
	lastSeq uint64
}

// NewSession creates an empty Session. ttl bounds how long a parked command
// survives unresolved; pass 0 for DefaultTTL or NoExpiry to reproduce the
// keep-forever behavior.
func NewSession(ttl time.Duration) *Session {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Session{
		pending: make(map[string]*Pending),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Park stores a command awaiting confirmation and returns the new record.
func (s *Session) Park(cmd *intent.Classification) *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeq++
	p := &Pending{
		ID:        uuid.NewString(),
		Command:   cmd,
		CreatedAt: s.now(),
		seq:       s.lastSeq,
	}
	s.pending[p.ID] = p
	return p
}

// Resolve tests an utterance as a confirmation response. On a clear yes or
// no it removes and returns the most recently created pending record; on
// anything else it returns OutcomeNone with the state untouched, and the
// caller reclassifies the utterance as a new command.
func (s *Session) Resolve(utterance string) (Outcome, *Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictStale()
	if len(s.pending) == 0 {
		return OutcomeNone, nil
	}

	isYes := containsCue(utterance, affirmativeWords, affirmativePhrases)
	isNo := containsCue(utterance, negativeWords, negativePhrases)
	if !isYes && !isNo {
		return OutcomeNone, nil
	}

	p := s.newest()
	delete(s.pending, p.ID)
	if isYes {
		// An utterance carrying both cues counts as a yes, matching the
		// order the cues are tested in.
		return OutcomeConfirmed, p
	}
	return OutcomeCancelled, p
}

// PendingCount reports how many unresolved confirmations the session holds,
// after evicting stale records.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictStale()
	return len(s.pending)
}

// newest returns the most recently created pending record. Callers hold the
// lock and have checked the map is non-empty.
func (s *Session) newest() *Pending {
	var latest *Pending
	for _, p := range s.pending {
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) ||
			(p.CreatedAt.Equal(latest.CreatedAt) && p.seq > latest.seq) {
			latest = p
		}
	}
	return latest
}

// evictStale removes records older than the session TTL. Callers hold the lock.
func (s *Session) evictStale() {
	if s.ttl == NoExpiry {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, p := range s.pending {
		if p.CreatedAt.Before(cutoff) {
			delete(s.pending, id)
		}
	}
}

// containsCue reports whether the utterance carries any of the cue words
// (whole tokens) or phrases (substrings). Token matching keeps "nope" from
// being read as "no"-plus-noise and leaves "maybe" unrecognized.
func containsCue(utterance string, words map[string]struct{}, phrases []string) bool {
	lower := strings.ToLower(utterance)
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, ok := words[tok]; ok {
			return true
		}
	}
	for _, ph := range phrases {
		if strings.Contains(lower, ph) {
			return true
		}
	}
	return false
}
