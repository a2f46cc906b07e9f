// Package outbox is the durable hand-off between the matching core and
// the trade publisher. A trade is written here in the same step that
// consumes the inbound order; the broadcaster drains it to the broker
// with at-least-once semantics and the acked records are garbage
// collected later.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

type Record struct {
	Seq         uint64
	State       State
	Attempts    uint32
	LastAttempt int64
	Payload     []byte
}

const headerLen = 1 + 4 + 8

// binary encoding: [state:1][attempts:4][lastAttempt:8][payload...]
func encodeRecord(r Record) []byte {
	buf := make([]byte, headerLen+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Attempts)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[headerLen:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (Record, error) {
	if len(b) < headerLen {
		return Record{}, errors.New("outbox record too short")
	}
	payload := make([]byte, len(b)-headerLen)
	copy(payload, b[headerLen:])
	return Record{
		Seq:         seq,
		State:       State(b[0]),
		Attempts:    binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- Outbox --------------------

type Outbox struct {
	db *pebble.DB

	mu   sync.Mutex // guards next across concurrent Puts
	next uint64
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // durability is the point
	})
	if err != nil {
		return nil, err
	}
	ob := &Outbox{db: db}
	if err := ob.recoverSeq(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ob, nil
}

// recoverSeq resumes numbering after the highest stored record so a
// restart never reuses a sequence.
func (o *Outbox) recoverSeq() error {
	iter, err := o.db.NewIter(keyBounds())
	if err != nil {
		return err
	}
	defer iter.Close()

	if iter.Last() && iter.Valid() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		o.next = seq
	}
	return iter.Error()
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// -------------------- API --------------------

// Put appends a new pending payload and returns its outbox sequence.
// The caller must not ack the inbound message before Put returns.
func (o *Outbox) Put(payload []byte) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	seq := o.next + 1
	rec := Record{State: StateNew, Payload: payload}
	if err := o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync); err != nil {
		return 0, err
	}
	o.next = seq
	return seq, nil
}

// MarkSent records a publish attempt before it is made.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.update(seq, StateSent, true)
}

// MarkAcked records broker acknowledgment; acked records are eligible
// for truncation.
func (o *Outbox) MarkAcked(seq uint64) error {
	return o.update(seq, StateAcked, false)
}

func (o *Outbox) update(seq uint64, state State, bumpAttempts bool) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.LastAttempt = time.Now().UnixNano()
	if bumpAttempts {
		rec.Attempts++
	}
	return o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Get returns the record for one sequence.
func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(seq, val)
}

// ScanPending iterates every record not yet acked, in sequence order.
// SENT records reappear here so a crash between publish and ack is
// retried (duplicates downstream, never losses).
func (o *Outbox) ScanPending(fn func(Record) error) error {
	iter, err := o.db.NewIter(keyBounds())
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if rec.State == StateAcked {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// TruncateAcked deletes every acked record and reports how many went.
func (o *Outbox) TruncateAcked() (int, error) {
	iter, err := o.db.NewIter(keyBounds())
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	removed := 0
	for iter.First(); iter.Valid(); iter.Next() {
		if len(iter.Value()) < headerLen || State(iter.Value()[0]) != StateAcked {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		if err := o.db.Delete(key, pebble.Sync); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, iter.Error()
}

// -------------------- Keys --------------------

const keyPrefix = "trade/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(b), keyPrefix+"%d", &seq)
	return seq, err
}

func keyBounds() *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	}
}
