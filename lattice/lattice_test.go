package lattice

import (
	"fmt"
	"math"
	"slices"
	"testing"
)

func TestBondCounts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		nx, ny  int
		nearest int
		second  int
		third   int
	}{
		// On a 2x2 lattice every stride 2 hop wraps back onto its origin.
		{nx: 2, ny: 2, nearest: 6, second: 6, third: 0},
		{nx: 3, ny: 1, nearest: 3, second: 3, third: 3},
		// On a 3x3 lattice the three second neighbor hops alias each
		// other modulo the extents, leaving one bond set of 9.
		{nx: 3, ny: 3, nearest: 27, second: 9, third: 27},
		{nx: 4, ny: 4, nearest: 48, second: 48, third: 24},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%dx%d", test.nx, test.ny), func(t *testing.T) {
			t.Parallel()
			bonds := Bonds(test.nx, test.ny)
			got := [3]int{len(bonds[0]), len(bonds[1]), len(bonds[2])}
			expected := [3]int{test.nearest, test.second, test.third}
			if got != expected {
				t.Fatalf("%v, expected %v", got, expected)
			}
		})
	}
}

func TestBondsSorted(t *testing.T) {
	t.Parallel()
	bonds := Bonds(4, 3)
	for l, bl := range bonds {
		for _, b := range bl {
			if b.S1 >= b.S2 {
				t.Fatalf("range %d bond %v", l+1, b)
			}
		}
		sorted := slices.IsSortedFunc(bl, func(a, b Bond) int {
			if a.S1 != b.S1 {
				return a.S1 - b.S1
			}
			return a.S2 - b.S2
		})
		if !sorted {
			t.Fatalf("range %d bonds not sorted %v", l+1, bl)
		}
	}
}

func TestBondsSmallLattice(t *testing.T) {
	t.Parallel()
	bonds := Bonds(3, 1)
	expected := []Bond{{S1: 0, S2: 1}, {S1: 0, S2: 2}, {S1: 1, S2: 2}}
	if !slices.Equal(bonds[0], expected) {
		t.Fatalf("%v, expected %v", bonds[0], expected)
	}
}

func TestAngleWith(t *testing.T) {
	t.Parallel()
	s := New(0, 0, 3, 3)
	tests := []struct {
		hop      func(int) (Site, error)
		expected float64
	}{
		{hop: s.A1, expected: 0},
		{hop: s.A3, expected: -2 * math.Pi / 3},
		{hop: s.A2, expected: 2 * math.Pi / 3},
	}
	for i, test := range tests {
		u, err := test.hop(1)
		if err != nil {
			t.Fatalf("%d %+v", i, err)
		}
		if ang := s.AngleWith(u); ang != test.expected {
			t.Fatalf("%d %f, expected %f", i, ang, test.expected)
		}
	}
}

func TestSameSite(t *testing.T) {
	t.Parallel()
	s := New(0, 0, 2, 2)
	if _, err := s.A1(2); err != ErrSameSite {
		t.Fatalf("%+v", err)
	}
	if _, err := s.B1(2); err != ErrSameSite {
		t.Fatalf("%+v", err)
	}
	if _, err := s.B2(1); err != nil {
		// b2 on a 2x2 lattice hops (-2, 1), which only wraps in x.
		t.Fatalf("%+v", err)
	}
}

func TestSemiSiteNeighbors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		idx      int
		expected []int
	}{
		{idx: 4, expected: []int{5, 7, 2, 3, 1, 6}},
		{idx: 0, expected: []int{1, 3, 2, 5}},
		{idx: 8, expected: []int{6, 3, 7, 5}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.idx), func(t *testing.T) {
			t.Parallel()
			s := SemiFromIndex(test.idx, 3, 3)
			neighbors := s.Neighbors()
			if !slices.Equal(neighbors, test.expected) {
				t.Fatalf("%v, expected %v", neighbors, test.expected)
			}
		})
	}
}

func TestIndexRoundTrip(t *testing.T) {
	t.Parallel()
	for idx := 0; idx < 12; idx++ {
		s := FromIndex(idx, 4, 3)
		if s.Index() != idx {
			t.Fatalf("%v, expected %d", s, idx)
		}
	}
}
