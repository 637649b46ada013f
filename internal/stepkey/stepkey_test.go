package stepkey

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"1", []int{1}},
		{"2.10.1", []int{2, 10, 1}},
		{"2..1", []int{2, 1}},
		{"3.a.4", []int{3, 4}},
		{"", nil},
		{"abc", nil},
		{"-1.2", []int{2}},
		{"99999999999999999999.1", []int{1}},
	}
	for _, tt := range tests {
		got := Parse(tt.in)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Parse(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestCompare_Ordering(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2", "2.1", -1},
		{"2.1", "2.2", -1},
		{"2.2", "2.10", -1},
		{"10", "9", 1},
		{"1.1", "1.1", 0},
		{"2", "abc", -1},
		{"abc", "999.999", 1},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestCompare_AntisymmetricAndTransitive(t *testing.T) {
	numbers := []string{"1", "1.1", "1.2", "1.10", "2", "2.1", "2.1.1", "10", "3.4.5.6", "x", ""}
	for _, a := range numbers {
		for _, b := range numbers {
			if Compare(a, b) != -Compare(b, a) {
				t.Errorf("antisymmetry violated for %q, %q", a, b)
			}
			for _, c := range numbers {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 && Compare(a, c) > 0 {
					t.Errorf("transitivity violated for %q <= %q <= %q", a, b, c)
				}
			}
		}
	}
}

func TestCompare_SortIsStableUnderShuffle(t *testing.T) {
	want := []string{"1", "1.1", "1.1.1", "1.2", "2", "2.9", "2.10", "11"}
	for range 20 {
		got := slices.Clone(want)
		rand.Shuffle(len(got), func(i, j int) { got[i], got[j] = got[j], got[i] })
		slices.SortFunc(got, Compare)
		if !slices.Equal(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestParentNumber(t *testing.T) {
	tests := map[string]string{
		"1.2.3": "1.2",
		"1.2":   "1",
		"1":     "",
		"":      "",
	}
	for in, want := range tests {
		if got := ParentNumber(in); got != want {
			t.Errorf("ParentNumber(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestAnchorID(t *testing.T) {
	if got := AnchorID("1.2.3"); got != "step-1-2-3" {
		t.Errorf("expected %q, got %q", "step-1-2-3", got)
	}
	if got := AnchorID("4"); got != "step-4" {
		t.Errorf("expected %q, got %q", "step-4", got)
	}
	if got := NumberFromAnchor("step-2-3"); got != "2.3" {
		t.Errorf("expected %q, got %q", "2.3", got)
	}
}

func TestAnchorID_Injective(t *testing.T) {
	seen := map[string]string{}
	var gen func(prefix string, depth int)
	gen = func(prefix string, depth int) {
		if depth == 0 {
			return
		}
		for i := 0; i <= 12; i++ {
			n := prefix + strconv.Itoa(i)
			if !Valid(n) {
				t.Fatalf("generated invalid number %q", n)
			}
			id := AnchorID(n)
			if prev, ok := seen[id]; ok && prev != n {
				t.Fatalf("anchor %q produced by both %q and %q", id, prev, n)
			}
			seen[id] = n
			gen(n+".", depth-1)
		}
	}
	gen("", 3)
}

func TestDepthAndValid(t *testing.T) {
	if Depth("1.2.3") != 2 {
		t.Errorf("expected depth 2, got %d", Depth("1.2.3"))
	}
	if Depth("7") != 0 {
		t.Errorf("expected depth 0, got %d", Depth("7"))
	}
	for _, n := range []string{"", "1.", ".1", "1..2", "a"} {
		if Valid(n) {
			t.Errorf("expected %q to be invalid", n)
		}
	}
}
