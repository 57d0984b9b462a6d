package trilattice

import (
	"math/cmplx"
	"slices"

	"trilattice/bloch"
	"trilattice/mat"
)

// zElement is the i-th diagonal element of the Ising term at range l:
// 0.25 per aligned bond, -0.25 per anti-aligned bond.
func (m *Model) zElement(sec *bloch.Sector, i, l int) float64 {
	lead := sec.State(i).Lead
	s1s, s2s := m.sites[l-1][0], m.sites[l-1][1]

	same := 0
	for k, s1 := range s1s {
		upup, downdown := bloch.RepeatedSpins(lead, s1, s2s[k])
		if upup || downdown {
			same++
		}
	}
	diff := len(s1s) - same
	return 0.25 * float64(same-diff)
}

// pmElements computes row i of the exchange term at range l. Every
// anti-aligned bond exchanges its two spins, and the flipped state is
// resolved back to a basis state through the sector.
func (m *Model) pmElements(sec *bloch.Sector, i, l int) map[int]complex128 {
	lead := sec.State(i).Lead
	s1s, s2s := m.sites[l-1][0], m.sites[l-1][1]

	elements := make(map[int]complex128)
	for k, s1 := range s1s {
		s2 := s2s[k]
		updown, downup := bloch.ExchangeSpinFlips(lead, s1, s2)
		var newDec uint64
		switch {
		case updown:
			newDec = lead - s1 + s2
		case downup:
			newDec = lead + s1 - s2
		default:
			continue
		}

		j, phase, ok := sec.LeadingState(newDec)
		if !ok {
			continue
		}
		elements[j] += phase * complex(sec.Norm(j)/sec.Norm(i), 0)
	}
	return elements
}

// ppmmElements computes row i of the double flip term. Every aligned
// nearest neighbor bond flips both spins, raising picks up the conjugated
// bond factor and lowering the plain one.
func (m *Model) ppmmElements(sec *bloch.Sector, i int) map[int]complex128 {
	lead := sec.State(i).Lead
	s1s, s2s := m.sites[0][0], m.sites[0][1]

	elements := make(map[int]complex128)
	for k, s1 := range s1s {
		s2 := s2s[k]
		upup, downdown := bloch.RepeatedSpins(lead, s1, s2)
		var newDec uint64
		var g complex128
		switch {
		case upup:
			newDec = lead - s1 - s2
			g = cmplx.Conj(m.gamma(s1, s2))
		case downdown:
			newDec = lead + s1 + s2
			g = m.gamma(s1, s2)
		default:
			continue
		}

		j, phase, ok := sec.LeadingState(newDec)
		if !ok {
			continue
		}
		elements[j] += g * phase * complex(sec.Norm(j)/sec.Norm(i), 0)
	}
	return elements
}

// pmzElements computes row i of the flip-z term, sans the overall factor
// of i. Each nearest neighbor bond contributes in both site orderings:
// site 1 supplies the z factor of ±0.5 and site 2 is flipped, with the
// bond factor conjugated when flipping down and negated when flipping up.
func (m *Model) pmzElements(sec *bloch.Sector, i int) map[int]complex128 {
	lead := sec.State(i).Lead
	s1s, s2s := m.sites[0][0], m.sites[0][1]

	elements := make(map[int]complex128)
	for k := range s1s {
		s1, s2 := s1s[k], s2s[k]
		for t := 0; t < 2; t++ {
			zContrib := -0.5
			if lead|s1 == lead {
				zContrib = 0.5
			}

			var newDec uint64
			var g complex128
			if lead|s2 == lead {
				newDec = lead - s2
				g = cmplx.Conj(m.gamma(s1, s2))
			} else {
				newDec = lead + s2
				g = -m.gamma(s1, s2)
			}

			if j, phase, ok := sec.LeadingState(newDec); ok {
				elements[j] += complex(zContrib, 0) * g * phase * complex(sec.Norm(j)/sec.Norm(i), 0)
			}

			s1, s2 = s2, s1
		}
	}
	return elements
}

// offdiag assembles a term matrix from a per-row element function,
// keeping the entries in row major order.
func (m *Model) offdiag(sec *bloch.Sector, elements func(i int) map[int]complex128) *mat.COO {
	n := sec.Size()
	h := mat.COOZeros(n, n)
	for i := 0; i < n; i++ {
		row := elements(i)
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		slices.Sort(cols)
		for _, j := range cols {
			h.Set(i, j, row[j])
		}
	}
	return h
}
