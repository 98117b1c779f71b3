package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.conf")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOnceFiresAtMostOnce(t *testing.T) {
	path := writeTemp(t, "?lookup /a/\n?lookup /b/\n")
	ip := New()
	var seen []string
	ip.Register("lookup", Once, func(_ any, _ string, ln *Line) error {
		v, err := ln.PopDirectory()
		if err != nil {
			return err
		}
		seen = append(seen, v)
		return nil
	})
	if err := ip.Run(nil, path); err == nil {
		t.Fatal("expected fatal error on second ?lookup call")
	}
}

func TestPrefixedSetAndInvoke(t *testing.T) {
	path := writeTemp(t, "@client acme-\n:client one\n:client two\n")
	ip := New()
	var got []string
	ip.Register("client", Prefixed, func(_ any, prefix string, ln *Line) error {
		name, err := ln.Pop()
		if err != nil {
			return err
		}
		got = append(got, prefix+name)
		return nil
	})
	if err := ip.Run(nil, path); err != nil {
		t.Fatal(err)
	}
	want := []string{"acme-one", "acme-two"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestOnceRejectsPrefixedCallTokens(t *testing.T) {
	path := writeTemp(t, ":lookup /a/\n")
	ip := New()
	ip.Register("lookup", Once, func(_ any, _ string, ln *Line) error { return nil })
	if err := ip.Run(nil, path); err == nil {
		t.Fatal("expected fatal error: Once keyword invoked with ':'")
	}
}

func TestUnregisteredKeywordIsFatal(t *testing.T) {
	path := writeTemp(t, "?nope\n")
	ip := New()
	if err := ip.Run(nil, path); err == nil {
		t.Fatal("expected fatal error for unregistered keyword")
	}
}

func TestCommentsAndBlankLinesSkipped(t *testing.T) {
	path := writeTemp(t, "# a comment\n\n?lookup /a/\n")
	ip := New()
	called := false
	ip.Register("lookup", Once, func(_ any, _ string, ln *Line) error {
		called = true
		_, err := ln.PopDirectory()
		return err
	})
	if err := ip.Run(nil, path); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("expected lookup handler to be called")
	}
}

func TestPopU8Truncates(t *testing.T) {
	ln := newLine("f", 1, []string{"300"}, new(uint64))
	v, err := ln.PopU8()
	if err != nil {
		t.Fatal(err)
	}
	if v != 44 {
		t.Fatalf("got %d, want 300 truncated to 8 bits (44)", v)
	}
}

func TestPopCounterStarIncrements(t *testing.T) {
	counter := new(uint64)
	ln := newLine("f", 1, []string{"*"}, counter)
	v, err := ln.PopCounter()
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Fatalf("first '*' should yield 1, got %d", v)
	}
	ln2 := newLine("f", 1, []string{"5"}, counter)
	v2, err := ln2.PopCounter()
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 5 {
		t.Fatalf("explicit set should yield 5, got %d", v2)
	}
	ln3 := newLine("f", 1, []string{"*"}, counter)
	v3, err := ln3.PopCounter()
	if err != nil {
		t.Fatal(err)
	}
	if v3 != 6 {
		t.Fatalf("'*' after explicit set to 5 should yield 6, got %d", v3)
	}
}

func TestPopModeBitOrdering(t *testing.T) {
	ln := newLine("f", 1, []string{"10000000"}, new(uint64))
	mask, isBase, err := ln.PopMode()
	if err != nil {
		t.Fatal(err)
	}
	if isBase {
		t.Fatal("did not expect base")
	}
	if mask != 1 {
		t.Fatalf("character index 0 should map to bit 0: got mask %08b", mask)
	}
}

func TestPopModeRejectsBadPattern(t *testing.T) {
	for _, tok := range []string{"1000000", "100000002", "1000000x"} {
		ln := newLine("f", 1, []string{tok}, new(uint64))
		if _, _, err := ln.PopMode(); err == nil {
			t.Fatalf("expected fatal error for pattern %q", tok)
		}
	}
}

func TestPopSequenceBounds(t *testing.T) {
	// Terminator missing entirely.
	ln := newLine("f", 1, []string{"1"}, new(uint64))
	if _, err := ln.PopSequence(); err == nil {
		t.Fatal("expected fatal error for unterminated sequence")
	}

	// Zero items is fatal.
	ln2 := newLine("f", 1, []string{";"}, new(uint64))
	if _, err := ln2.PopSequence(); err == nil {
		t.Fatal("expected fatal error for empty sequence")
	}

	// More than 3 items is fatal.
	ln3 := newLine("f", 1, []string{"1", "2", "3", "4", ";"}, new(uint64))
	if _, err := ln3.PopSequence(); err == nil {
		t.Fatal("expected fatal error for oversized sequence")
	}

	// 1-3 items is fine.
	ln4 := newLine("f", 1, []string{"1", "2", ";"}, new(uint64))
	seq, err := ln4.PopSequence()
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 2 || seq[0] != 1 || seq[1] != 2 {
		t.Fatalf("got %v", seq)
	}
}

func TestPopAscii(t *testing.T) {
	cases := map[string]uint8{"bA": 'A', "s": 32, "65": 65}
	for tok, want := range cases {
		ln := newLine("f", 1, []string{tok}, new(uint64))
		got, err := ln.PopAscii()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("%q: got %d, want %d", tok, got, want)
		}
	}
}

func TestPopNameLiteralBang(t *testing.T) {
	ln := newLine("f", 1, []string{"!"}, new(uint64))
	name, err := ln.PopName()
	if err != nil {
		t.Fatal(err)
	}
	if name != nil {
		t.Fatalf("expected absent name, got %v", *name)
	}
}

func TestPopBinaryByIndexAndName(t *testing.T) {
	table := []BinaryFile{{Path: "a.bin", Name: "alpha"}, {Path: "b.bin", Name: "beta"}}
	ln := newLine("f", 1, []string{"1"}, new(uint64))
	path, err := ln.PopBinary(table)
	if err != nil {
		t.Fatal(err)
	}
	if path != "b.bin" {
		t.Fatalf("got %q, want b.bin", path)
	}

	ln2 := newLine("f", 1, []string{"alpha"}, new(uint64))
	path2, err := ln2.PopBinary(table)
	if err != nil {
		t.Fatal(err)
	}
	if path2 != "a.bin" {
		t.Fatalf("got %q, want a.bin", path2)
	}
}
