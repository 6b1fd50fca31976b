package domain

import (
	"strconv"
	"testing"
)

func TestDigest(t *testing.T) {
	d1 := Digest("ABC-123")
	d2 := Digest("ABC-123")
	if d1 != d2 {
		t.Errorf("digest is not stable: %s != %s", d1, d2)
	}
	if len(d1) != DigestLength {
		t.Errorf("want length %d, got %d", DigestLength, len(d1))
	}
	if Digest("ABC-124") == d1 {
		t.Error("different plaintexts produced the same digest")
	}
}

func TestDigest_KnownVector(t *testing.T) {
	got := Digest("")
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestDigest_Distinct(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 1000; i++ {
		plain := "key-" + strconv.Itoa(i)
		d := Digest(plain)
		if prev, ok := seen[d]; ok {
			t.Fatalf("collision between %q and %q", prev, plain)
		}
		seen[d] = plain
	}
}

func TestShortDigest(t *testing.T) {
	d := Digest("ABC-123")
	if got := ShortDigest(d); got != d[:12] {
		t.Errorf("want %s, got %s", d[:12], got)
	}
	if got := ShortDigest("abc"); got != "abc" {
		t.Errorf("want abc, got %s", got)
	}
}
