package capture

import (
	"sync"
	"testing"
)

func TestAdmitSuppressesRepeat(t *testing.T) {
	d := NewDeduplicator(0)

	first := NewTextItem("the same clipboard content")
	if v := d.Admit(first); v != VerdictNovel {
		t.Fatalf("got %q, want %q", v, VerdictNovel)
	}

	repeat := NewTextItem("the same clipboard content")
	if v := d.Admit(repeat); v != VerdictDuplicate {
		t.Fatalf("got %q, want %q", v, VerdictDuplicate)
	}
}

func TestAdmitSingleSlotForgetsOlder(t *testing.T) {
	d := NewDeduplicator(0)

	a := NewTextItem("content a")
	b := NewTextItem("content b")

	// Only the most recent fingerprint is remembered, so alternating
	// content is admitted every time.
	for i := 0; i < 3; i++ {
		if v := d.Admit(a); v != VerdictNovel {
			t.Fatalf("round %d: item a got %q, want %q", i, v, VerdictNovel)
		}
		if v := d.Admit(b); v != VerdictNovel {
			t.Fatalf("round %d: item b got %q, want %q", i, v, VerdictNovel)
		}
	}
}

func TestAdmitMinLength(t *testing.T) {
	d := NewDeduplicator(10)

	if v := d.Admit(NewTextItem("short")); v != VerdictTooShort {
		t.Fatalf("got %q, want %q", v, VerdictTooShort)
	}
	if v := d.Admit(NewTextItem("long enough to pass")); v != VerdictNovel {
		t.Fatalf("got %q, want %q", v, VerdictNovel)
	}

	// Image items are exempt from the text length filter.
	if v := d.Admit(NewImageItem([]byte{0x89, 0x50}, "shot.png")); v != VerdictNovel {
		t.Fatalf("image got %q, want %q", v, VerdictNovel)
	}
}

func TestAdmitConcurrentSameFingerprint(t *testing.T) {
	d := NewDeduplicator(0)

	const goroutines = 16
	var wg sync.WaitGroup
	verdicts := make([]Verdict, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			verdicts[idx] = d.Admit(NewTextItem("raced content"))
		}(i)
	}
	wg.Wait()

	novel := 0
	for _, v := range verdicts {
		if v == VerdictNovel {
			novel++
		}
	}
	if novel != 1 {
		t.Fatalf("got %d novel verdicts, want exactly 1", novel)
	}
}

func TestFingerprintStableAcrossItems(t *testing.T) {
	a := NewTextItem("identical payload")
	b := NewTextItem("identical payload")
	if a.Fingerprint != b.Fingerprint {
		t.Fatalf("fingerprints differ: %s vs %s", a.Fingerprint, b.Fingerprint)
	}

	c := NewTextItem("identical payload!")
	if a.Fingerprint == c.Fingerprint {
		t.Fatal("distinct payloads produced the same fingerprint")
	}
}

func TestFingerprintTextRoundTrip(t *testing.T) {
	fp := FingerprintOf(NewTextItem("round trip"))

	encoded, err := fp.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(encoded) != 32 {
		t.Fatalf("got %d hex chars, want 32", len(encoded))
	}

	var decoded Fingerprint
	if err := decoded.UnmarshalText(encoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != fp {
		t.Fatalf("got %s, want %s", decoded, fp)
	}
}
