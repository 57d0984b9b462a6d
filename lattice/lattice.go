// Package lattice provides site arithmetic and bond enumeration on
// periodic triangular lattices.
package lattice

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

var (
	// ErrSameSite reports a directional hop landing back on its origin.
	ErrSameSite = errors.New("hop lands on the same site")
	// ErrOutOfBounds reports a hop crossing a non-periodic boundary.
	ErrOutOfBounds = errors.New("hopping off the lattice")
)

// Site is a point on an Nx by Ny lattice with periodic boundary conditions.
type Site struct {
	X, Y   int
	Nx, Ny int
}

func New(x, y, nx, ny int) Site {
	return Site{X: mod(x, nx), Y: mod(y, ny), Nx: nx, Ny: ny}
}

func FromIndex(idx, nx, ny int) Site {
	return Site{X: idx % nx, Y: idx / nx, Nx: nx, Ny: ny}
}

// Index is the row major lattice index of the site.
func (s Site) Index() int {
	return s.X + s.Nx*s.Y
}

func (s Site) XHop(stride int) Site {
	s.X = mod(s.X+stride, s.Nx)
	return s
}

func (s Site) YHop(stride int) Site {
	s.Y = mod(s.Y+stride, s.Ny)
	return s
}

// AngleWith returns twice the angle between the bond from s to t and the horizontal.
// It is defined for nearest neighboring sites only.
func (s Site) AngleWith(t Site) float64 {
	dx, dy := t.X-s.X, t.Y-s.Y
	switch {
	case dx == 0:
		return -2 * math.Pi / 3
	case dy == 0:
		return 0
	default:
		return 2 * math.Pi / 3
	}
}

// A1 hops along the horizontal lattice vector.
func (s Site) A1(stride int) (Site, error) {
	t := s.XHop(stride)
	if t == s {
		return Site{}, ErrSameSite
	}
	return t, nil
}

func (s Site) A2(stride int) (Site, error) {
	t := s.XHop(-stride).YHop(stride)
	if t == s {
		return Site{}, ErrSameSite
	}
	return t, nil
}

func (s Site) A3(stride int) (Site, error) {
	t := s.YHop(-stride)
	if t == s {
		return Site{}, ErrSameSite
	}
	return t, nil
}

// B1 hops in the a1 - a3 direction, connecting second nearest neighbors.
func (s Site) B1(stride int) (Site, error) {
	t := s.XHop(stride).YHop(stride)
	if t == s {
		return Site{}, ErrSameSite
	}
	return t, nil
}

func (s Site) B2(stride int) (Site, error) {
	t := s.XHop(-2 * stride).YHop(stride)
	if t == s {
		return Site{}, ErrSameSite
	}
	return t, nil
}

func (s Site) B3(stride int) (Site, error) {
	t := s.XHop(stride).YHop(-2 * stride)
	if t == s {
		return Site{}, ErrSameSite
	}
	return t, nil
}

type hop func(Site, int) (Site, error)

func neighboringSites(s Site, stride int, hops []hop) []Site {
	neighbors := make([]Site, 0, len(hops))
	for _, h := range hops {
		t, err := h(s, stride)
		if errors.Is(err, ErrSameSite) {
			continue
		}
		neighbors = append(neighbors, t)
	}
	return neighbors
}

// NearestNeighbors enumerates the neighbors of s in the positive
// a1, a2 and a3 directions.
func (s Site) NearestNeighbors() []Site {
	return neighboringSites(s, 1, []hop{Site.A1, Site.A2, Site.A3})
}

// SecondNeighbors enumerates the neighbors of s along the b1, b2
// and b3 directions.
func (s Site) SecondNeighbors() []Site {
	return neighboringSites(s, 1, []hop{Site.B1, Site.B2, Site.B3})
}

// ThirdNeighbors enumerates the neighbors of s two strides away
// along the a1, a2 and a3 directions.
func (s Site) ThirdNeighbors() []Site {
	return neighboringSites(s, 2, []hop{Site.A1, Site.A2, Site.A3})
}

// Bond is an unordered pair of coupled lattice sites, S1 < S2.
type Bond struct {
	S1, S2 int
}

// Bonds returns the deduplicated site pairs at nearest, second and
// third neighbor range, each sorted ascending.
func Bonds(nx, ny int) [3][]Bond {
	n := nx * ny
	sets := [3]map[Bond]struct{}{{}, {}, {}}
	for i := 0; i < n; i++ {
		site := FromIndex(i, nx, ny)
		neighbors := [3][]Site{site.NearestNeighbors(), site.SecondNeighbors(), site.ThirdNeighbors()}
		for leap, bonds := range sets {
			for _, t := range neighbors[leap] {
				s1, s2 := i, t.Index()
				if s1 > s2 {
					s1, s2 = s2, s1
				}
				bonds[Bond{S1: s1, S2: s2}] = struct{}{}
			}
		}
	}

	var byRange [3][]Bond
	for leap, bonds := range sets {
		byRange[leap] = make([]Bond, 0, len(bonds))
		for b := range bonds {
			byRange[leap] = append(byRange[leap], b)
		}
		slices.SortFunc(byRange[leap], func(a, b Bond) int {
			if a.S1 != b.S1 {
				return a.S1 - b.S1
			}
			return a.S2 - b.S2
		})
	}
	return byRange
}

// SemiSite is a Site that is periodic only along the x direction.
// Hopping off the open y boundary returns ErrOutOfBounds.
type SemiSite struct {
	X, Y   int
	Nx, Ny int
}

func SemiFromIndex(idx, nx, ny int) SemiSite {
	return SemiSite{X: idx % nx, Y: idx / nx, Nx: nx, Ny: ny}
}

func (s SemiSite) Index() int {
	return s.X + s.Nx*s.Y
}

func (s SemiSite) XHop(stride int) SemiSite {
	s.X = mod(s.X+stride, s.Nx)
	return s
}

func (s SemiSite) YHop(stride int) (SemiSite, error) {
	newY := s.Y + stride
	if newY < 0 || newY >= s.Ny {
		return SemiSite{}, ErrOutOfBounds
	}
	s.Y = newY
	return s, nil
}

// Neighbors enumerates the lattice indices of the sites adjacent to s,
// omitting neighbors beyond the open boundary.
func (s SemiSite) Neighbors() []int {
	neighbors := make([]int, 0, 6)
	for _, d := range []int{1, -1} {
		neighbors = append(neighbors, s.XHop(d).Index())
		if t, err := s.YHop(d); err == nil {
			neighbors = append(neighbors, t.Index())
		}
		if t, err := s.XHop(d).YHop(-d); err == nil {
			neighbors = append(neighbors, t.Index())
		}
	}
	return neighbors
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
