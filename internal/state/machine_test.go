package state

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"hubswap/internal/model"
)

func fixedClock(ts int64) func() time.Time {
	return func() time.Time { return time.Unix(ts, 0) }
}

func TestExecCommitsEventsAndWrites(t *testing.T) {
	m := New(fixedClock(1_000), nil)
	var seen []model.Event
	m.OnCommit(func(events []model.Event) { seen = append(seen, events...) })

	value := 1
	err := m.Exec(func() error {
		prev := value
		value = 2
		m.Record(func() { value = prev })
		m.Emit(common.HexToAddress("0x01"), model.QueueToggleEventData{Active: true})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, value)
	require.Len(t, seen, 1)
	require.Equal(t, uint64(1), seen[0].Seq)
	require.Equal(t, uint64(1_000), seen[0].Timestamp)
	require.Equal(t, model.EventQueueToggle, seen[0].Name)
}

func TestExecRevertsOnError(t *testing.T) {
	m := New(fixedClock(1), nil)
	var seen []model.Event
	m.OnCommit(func(events []model.Event) { seen = append(seen, events...) })

	values := map[string]int{"a": 1}
	boom := errors.New("boom")
	err := m.Exec(func() error {
		for _, next := range []int{5, 9} {
			prev := values["a"]
			values["a"] = next
			m.Record(func() { values["a"] = prev })
		}
		values["b"] = 3
		m.Record(func() { delete(values, "b") })
		m.Emit(common.Address{}, model.QueueToggleEventData{})
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, map[string]int{"a": 1}, values)
	require.Empty(t, seen)
	require.Zero(t, m.Seq())
}

func TestExecRevertsOnPanic(t *testing.T) {
	m := New(fixedClock(1), nil)
	value := 1
	require.Panics(t, func() {
		_ = m.Exec(func() error {
			value = 7
			m.Record(func() { value = 1 })
			panic("kaboom")
		})
	})
	require.Equal(t, 1, value)

	// machine remains usable after a panic
	require.NoError(t, m.Exec(func() error { return nil }))
}

func TestRecordOutsideTransactionIsPermanent(t *testing.T) {
	m := New(fixedClock(1), nil)
	called := false
	m.Record(func() { called = true })
	require.Error(t, m.Exec(func() error { return errors.New("x") }))
	require.False(t, called)
}
