// Package session adapts the codec's FIXT 1.1 session-layer companion:
// sequence-number bookkeeping across the SenderCompID/TargetCompID pairs
// a *fix.Message header carries. The codec itself (package fix) is a pure
// wire-format library with no notion of a live session; this package is
// the collaborator that tracks one, for callers that need seq-num
// tracking but not a full FIX engine.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wyfcoding/fixcodec/fix"
)

var (
	// ErrSeqNumTooLow means the incoming message's MsgSeqNum(34) is
	// behind the session's expected next value — a duplicate or replay.
	ErrSeqNumTooLow = errors.New("seq num too low")
	// ErrSeqNumGap means the incoming MsgSeqNum(34) is ahead of the
	// session's expected next value; callers should issue a
	// ResendRequest rather than process the message.
	ErrSeqNumGap = errors.New("seq num gap detected")
	// ErrMissingSeqNum means the message carries no tag 34, or a tag 34
	// whose value is not a decimal number.
	ErrMissingSeqNum = errors.New("missing MsgSeqNum")
)

const (
	tagMsgSeqNum   fix.Tag = 34
	tagSendingTime fix.Tag = 52
)

// sendingTimeLayout is the standard FIX UTCTimestamp format used by
// tag 52 (SendingTime).
const sendingTimeLayout = "20060102-15:04:05.000"

// Session tracks inbound/outbound sequence numbers for one
// SenderCompID/TargetCompID pair, independent of transport.
type Session struct {
	LastHeartbeat time.Time
	mu            sync.RWMutex
	ID            string
	SenderCompID  string
	TargetCompID  string
	InSeqNum      int64
	OutSeqNum     int64
}

// New starts a Session with both sequence numbers at 1, per FIXT 1.1
// logon defaults.
func New(id, sender, target string) *Session {
	return &Session{
		ID:           id,
		SenderCompID: sender,
		TargetCompID: target,
		InSeqNum:     1,
		OutSeqNum:    1,
	}
}

// NextOutSeq reserves and returns the next outbound sequence number; the
// caller is expected to stamp it into tag 34 before encoding.
func (s *Session) NextOutSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.OutSeqNum
	s.OutSeqNum++
	return seq
}

// Stamp assigns msg the session's next outbound sequence number (tag 34)
// and the current time as SendingTime (tag 52), as an outgoing message
// must carry both before being encoded and sent.
func (s *Session) Stamp(msg *fix.Message) {
	seq := s.NextOutSeq()
	msg.SetField(tagMsgSeqNum, fmt.Sprintf("%d", seq))
	msg.SetField(tagSendingTime, time.Now().UTC().Format(sendingTimeLayout))
}

// Track validates msg's MsgSeqNum(34) against the session's expected
// inbound value and advances it on success.
func (s *Session) Track(msg *fix.Message) error {
	raw, ok := msg.GetField(tagMsgSeqNum)
	if !ok {
		return ErrMissingSeqNum
	}
	seq, err := parseSeqNum(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMissingSeqNum, raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.InSeqNum {
		return fmt.Errorf("%w: got %d, want %d", ErrSeqNumTooLow, seq, s.InSeqNum)
	}
	if seq > s.InSeqNum {
		return fmt.Errorf("%w: got %d, want %d", ErrSeqNumGap, seq, s.InSeqNum)
	}
	s.InSeqNum++
	s.LastHeartbeat = time.Now()
	return nil
}

func parseSeqNum(raw string) (int64, error) {
	var n int64
	if raw == "" {
		return 0, errors.New("empty MsgSeqNum")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit MsgSeqNum %q", raw)
		}
		n = n*10 + int64(r-'0')
	}
	return n, nil
}

// Manager centrally tracks every Session keyed by ID, for a component
// handling many counterparties at once.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Add registers s under s.ID, replacing any prior session with that ID.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Get returns the session registered under id, or nil if none.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// List returns every registered session in no particular order.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	return list
}
