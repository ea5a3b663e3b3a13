package buffer

import (
	"testing"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := Unbounded[int](4, 0)

	for i := 0; i < 100; i++ {
		q.In() <- i
	}
	close(q.In())

	want := 0
	for v := range q.Out() {
		if v != want {
			t.Fatalf("got %d, want %d", v, want)
		}
		want++
	}
	if want != 100 {
		t.Errorf("received %d items, want 100", want)
	}
}

func TestQueueDropsOldestAtLimit(t *testing.T) {
	q := Unbounded[int](4, 5)

	// Nothing reads Out while sending, so at most 25 items fit:
	// 10 in each channel and 5 in the slice.
	const sent = 40
	for i := 0; i < sent; i++ {
		q.In() <- i
	}
	close(q.In())

	var got []int
	for v := range q.Out() {
		got = append(got, v)
	}

	dropped := q.Dropped()
	if dropped < sent-25 {
		t.Errorf("Dropped() = %d, want at least %d", dropped, sent-25)
	}
	if uint64(len(got))+dropped != sent {
		t.Errorf("received %d + dropped %d, want %d", len(got), dropped, sent)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("out of order at %d: %v", i, got)
		}
	}
	if got[len(got)-1] != sent-1 {
		t.Errorf("last item = %d, want newest %d", got[len(got)-1], sent-1)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after flush, want 0", q.Len())
	}
}
