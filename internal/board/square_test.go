package board

import "testing"

func TestNamedSquares(t *testing.T) {
	named := []struct {
		sq   Square
		name string
	}{
		{A1, "a1"}, {B1, "b1"}, {C1, "c1"}, {D1, "d1"}, {E1, "e1"}, {F1, "f1"}, {G1, "g1"}, {H1, "h1"},
		{A8, "a8"}, {B8, "b8"}, {C8, "c8"}, {D8, "d8"}, {E8, "e8"}, {F8, "f8"}, {G8, "g8"}, {H8, "h8"},
	}

	for _, tc := range named {
		if got := tc.sq.String(); got != tc.name {
			t.Errorf("%d.String() = %q, want %q", tc.sq, got, tc.name)
		}
		sq, err := ParseSquare(tc.name)
		if err != nil || sq != tc.sq {
			t.Errorf("ParseSquare(%q) = %v, %v", tc.name, sq, err)
		}
		if sq.Mirror() != NewSquare(sq.File(), 7-sq.Rank()) {
			t.Errorf("%v.Mirror() = %v", sq, sq.Mirror())
		}
	}

	for _, bad := range []string{"", "a", "i1", "a9", "a10"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Errorf("ParseSquare(%q) succeeded", bad)
		}
	}
}
