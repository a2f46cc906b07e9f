package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, dir string) *Outbox {
	t.Helper()
	ob, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })
	return ob
}

func TestPutAssignsSequences(t *testing.T) {
	ob := openTest(t, t.TempDir())

	s1, err := ob.Put([]byte("one"))
	require.NoError(t, err)
	s2, err := ob.Put([]byte("two"))
	require.NoError(t, err)
	assert.Greater(t, s2, s1)

	rec, err := ob.Get(s1)
	require.NoError(t, err)
	assert.Equal(t, StateNew, rec.State)
	assert.Equal(t, []byte("one"), rec.Payload)
	assert.Zero(t, rec.Attempts)
}

func TestScanPendingSkipsAcked(t *testing.T) {
	ob := openTest(t, t.TempDir())

	s1, _ := ob.Put([]byte("a"))
	s2, _ := ob.Put([]byte("b"))
	s3, _ := ob.Put([]byte("c"))
	require.NoError(t, ob.MarkSent(s2))
	require.NoError(t, ob.MarkAcked(s2))

	var seen []uint64
	require.NoError(t, ob.ScanPending(func(rec Record) error {
		seen = append(seen, rec.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{s1, s3}, seen, "pending scan is ordered and excludes acked")
}

func TestMarkSentBumpsAttempts(t *testing.T) {
	ob := openTest(t, t.TempDir())

	seq, _ := ob.Put([]byte("x"))
	require.NoError(t, ob.MarkSent(seq))
	require.NoError(t, ob.MarkSent(seq))

	rec, err := ob.Get(seq)
	require.NoError(t, err)
	assert.Equal(t, StateSent, rec.State)
	assert.Equal(t, uint32(2), rec.Attempts)
	assert.NotZero(t, rec.LastAttempt)
}

func TestSentRecordsStayPending(t *testing.T) {
	// A crash between publish and ack leaves a SENT record; it must be
	// offered again on the next scan.
	ob := openTest(t, t.TempDir())

	seq, _ := ob.Put([]byte("x"))
	require.NoError(t, ob.MarkSent(seq))

	found := false
	require.NoError(t, ob.ScanPending(func(rec Record) error {
		if rec.Seq == seq {
			found = true
			assert.Equal(t, StateSent, rec.State)
		}
		return nil
	}))
	assert.True(t, found)
}

func TestTruncateAcked(t *testing.T) {
	ob := openTest(t, t.TempDir())

	s1, _ := ob.Put([]byte("a"))
	s2, _ := ob.Put([]byte("b"))
	require.NoError(t, ob.MarkSent(s1))
	require.NoError(t, ob.MarkAcked(s1))

	n, err := ob.TruncateAcked()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ob.Get(s1)
	assert.Error(t, err, "acked record is gone")
	_, err = ob.Get(s2)
	assert.NoError(t, err, "pending record survives")
}

func TestSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	ob, err := Open(dir)
	require.NoError(t, err)
	s1, err := ob.Put([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, ob.Close())

	ob2 := openTest(t, dir)
	s2, err := ob2.Put([]byte("b"))
	require.NoError(t, err)
	assert.Greater(t, s2, s1, "reopen must not reuse sequences")

	rec, err := ob2.Get(s1)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), rec.Payload, "records survive restart")
}
