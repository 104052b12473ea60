package registry

import (
	"errors"
	"testing"
	"time"
)

func TestAllocateResolve(t *testing.T) {
	r := New()
	entry, ok := r.Allocate(time.Now().Add(time.Second))
	if !ok {
		t.Fatal("expected allocation to succeed")
	}
	if !r.Resolve(entry.Seq, Result{Data: []byte("hi")}) {
		t.Fatal("expected Resolve to find the pending entry")
	}
	select {
	case res := <-entry.Done:
		if string(res.Data) != "hi" {
			t.Fatalf("Data = %q, want hi", res.Data)
		}
	default:
		t.Fatal("expected a result on entry.Done")
	}
}

func TestResolveUnknownSequenceReturnsFalse(t *testing.T) {
	r := New()
	if r.Resolve(5, Result{}) {
		t.Fatal("expected Resolve on an unallocated sequence to return false")
	}
}

func TestAllocateExhaustsSequenceSpace(t *testing.T) {
	r := New()
	for i := 0; i < MaxSequence; i++ {
		if _, ok := r.Allocate(time.Now().Add(time.Minute)); !ok {
			t.Fatalf("allocation %d unexpectedly failed", i)
		}
	}
	if _, ok := r.Allocate(time.Now().Add(time.Minute)); ok {
		t.Fatal("expected allocation to fail once every sequence number is in flight")
	}
}

func TestAllocateReusesFreedSequence(t *testing.T) {
	r := New()
	var seqs []uint8
	for i := 0; i < MaxSequence; i++ {
		e, _ := r.Allocate(time.Now().Add(time.Minute))
		seqs = append(seqs, e.Seq)
	}
	r.Resolve(seqs[0], Result{})

	e, ok := r.Allocate(time.Now().Add(time.Minute))
	if !ok {
		t.Fatal("expected allocation to succeed after freeing a sequence")
	}
	if e.Seq != seqs[0] {
		t.Fatalf("Seq = %d, want the freed sequence %d", e.Seq, seqs[0])
	}
}

func TestNextDeadlineReportsEarliest(t *testing.T) {
	r := New()
	later := time.Now().Add(time.Hour)
	earlier := time.Now().Add(time.Minute)
	r.Allocate(later)
	r.Allocate(earlier)

	got, ok := r.NextDeadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if !got.Equal(earlier) {
		t.Fatalf("NextDeadline = %v, want %v", got, earlier)
	}
}

func TestNextDeadlineEmptyRegistry(t *testing.T) {
	r := New()
	if _, ok := r.NextDeadline(); ok {
		t.Fatal("expected no deadline on an empty registry")
	}
}

func TestExpireDueDeliversTimeoutAndRemoves(t *testing.T) {
	r := New()
	timeoutErr := errors.New("timeout")
	entry, _ := r.Allocate(time.Now().Add(-time.Second)) // already past

	fired := r.ExpireDue(time.Now(), timeoutErr)
	if len(fired) != 1 || fired[0] != entry.Seq {
		t.Fatalf("fired = %v, want [%d]", fired, entry.Seq)
	}
	res := <-entry.Done
	if res.Err != timeoutErr {
		t.Fatalf("Err = %v, want %v", res.Err, timeoutErr)
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after expiry", r.Len())
	}
}

func TestExpireDueIgnoresFutureDeadlines(t *testing.T) {
	r := New()
	r.Allocate(time.Now().Add(time.Hour))
	if fired := r.ExpireDue(time.Now(), errors.New("timeout")); len(fired) != 0 {
		t.Fatalf("fired = %v, want none", fired)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestCloseAllDeliversToEveryWaiter(t *testing.T) {
	r := New()
	var entries []*Entry
	for i := 0; i < 3; i++ {
		e, _ := r.Allocate(time.Now().Add(time.Minute))
		entries = append(entries, e)
	}

	closeErr := errors.New("session closed")
	r.CloseAll(Result{Err: closeErr})

	for _, e := range entries {
		res := <-e.Done
		if res.Err != closeErr {
			t.Fatalf("Err = %v, want %v", res.Err, closeErr)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestCancelRemovesWithoutDelivering(t *testing.T) {
	r := New()
	e, _ := r.Allocate(time.Now().Add(time.Minute))
	r.Cancel(e.Seq)
	if r.Resolve(e.Seq, Result{}) {
		t.Fatal("expected Resolve to fail after Cancel")
	}
}
