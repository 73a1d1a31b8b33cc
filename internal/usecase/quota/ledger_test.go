package quota

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domquota "github.com/kailas-cloud/postgen/internal/domain/quota"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestLedger_TouchCreatesRecord(t *testing.T) {
	l := NewLedger(0)

	rec := l.Touch("10.0.0.1", t0)
	assert.Equal(t, 0, rec.Count)
	assert.True(t, rec.ResetAt.Equal(t0))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, domquota.DefaultWindow, l.Window())
}

func TestLedger_OneRecordPerClient(t *testing.T) {
	l := NewLedger(time.Hour)

	l.Touch("a", t0)
	l.Touch("a", t0.Add(time.Minute))
	l.Touch("b", t0)

	assert.Equal(t, 2, l.Len())

	rec, ok := l.Lookup("a")
	require.True(t, ok)
	assert.True(t, rec.ResetAt.Equal(t0), "second touch must not recreate the record")
}

func TestLedger_UpdateAppliesResetFirst(t *testing.T) {
	l := NewLedger(24 * time.Hour)
	l.Update("a", t0, func(rec *domquota.Record) { rec.Count = 3 })

	later := t0.Add(25 * time.Hour)
	var seen domquota.Record
	l.Update("a", later, func(rec *domquota.Record) { seen = *rec })

	assert.Equal(t, 0, seen.Count)
	assert.True(t, seen.ResetAt.Equal(later))
}

func TestLedger_LookupMissing(t *testing.T) {
	l := NewLedger(0)
	_, ok := l.Lookup("nobody")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len(), "lookup must not create records")
}

func TestLedger_Evict(t *testing.T) {
	l := NewLedger(24 * time.Hour)
	l.Touch("old", t0)
	l.Touch("new", t0.Add(47*time.Hour))

	removed := l.Evict(t0.Add(time.Hour))

	assert.Equal(t, 1, removed)
	_, ok := l.Lookup("old")
	assert.False(t, ok)
	_, ok = l.Lookup("new")
	assert.True(t, ok)
}

func TestLedger_UpdateAfterEvictStartsFresh(t *testing.T) {
	l := NewLedger(24 * time.Hour)
	l.Update("a", t0, func(rec *domquota.Record) { rec.Count = 2 })
	l.Evict(t0.Add(time.Second))

	now := t0.Add(2 * time.Hour)
	rec := l.Touch("a", now)
	assert.Equal(t, 0, rec.Count)
	assert.True(t, rec.ResetAt.Equal(now))
}

func TestLedger_ConcurrentUpdatesSerialized(t *testing.T) {
	l := NewLedger(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Update("shared", t0, func(rec *domquota.Record) { rec.Increment() })
		}()
	}
	wg.Wait()

	rec, ok := l.Lookup("shared")
	require.True(t, ok)
	assert.Equal(t, 100, rec.Count)
}
