package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// ElementScale is the zzaaam factor separating the atomic number from the
// mass number and metastable state. All isotopes of an element share id/ElementScale.
const ElementScale = 10000

// MaxMassNumber bounds the mass numbers the codec considers valid.
const MaxMassNumber = 300

// NuclideID is a zzaaam identifier: Z*10000 + A*10 + M. Elements have A = M = 0.
type NuclideID int

// NewNuclideID composes an id from atomic number, mass number, and metastable state.
func NewNuclideID(z, a, m int) NuclideID {
	return NuclideID(z*ElementScale + a*10 + m)
}

// Z returns the atomic number.
func (id NuclideID) Z() int { return int(id) / ElementScale }

// A returns the mass number (0 for element ids).
func (id NuclideID) A() int { return (int(id) / 10) % 1000 }

// M returns the metastable state.
func (id NuclideID) M() int { return int(id) % 10 }

// IsElement reports whether id names a whole element rather than an isotope.
func (id NuclideID) IsElement() bool { return id.A() == 0 && id.M() == 0 }

// Element projects an isotope id onto its element id.
func (id NuclideID) Element() NuclideID {
	return (id / ElementScale) * ElementScale
}

// GroundState drops the metastable flag.
func (id NuclideID) GroundState() NuclideID { return (id / 10) * 10 }

var (
	digitsRe     = regexp.MustCompile(`^\d+$`)
	symbolMassRe = regexp.MustCompile(`^([a-z]{1,2})-?(\d{1,3})(m?)$`)
	massSymbolRe = regexp.MustCompile(`^(\d{1,3})-?([a-z]{1,2})$`)
)

// Codec converts between textual designators and NuclideIDs over a fixed
// element table. It holds no mutable state and is safe to share.
type Codec struct {
	elements *ElementTable
}

// NewCodec creates a Codec backed by the given element table.
func NewCodec(elements *ElementTable) *Codec {
	return &Codec{elements: elements}
}

// Encode maps a designator to its canonical id. Accepted forms, all
// case-insensitive: element symbol ("He"), element name ("helium"), nuclide
// name ("He4", "He-4", "Am242M"), mass-first ("4He"), and a zzaaam integer
// ("20040").
func (c *Codec) Encode(s string) (NuclideID, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return 0, &UnknownNuclideError{Input: s}
	}

	if digitsRe.MatchString(in) {
		n, err := strconv.Atoi(in)
		if err != nil || !c.valid(NuclideID(n)) {
			return 0, &UnknownNuclideError{Input: s}
		}
		return NuclideID(n), nil
	}

	if e, ok := c.elements.BySymbol(in); ok {
		return NewNuclideID(e.Z, 0, 0), nil
	}
	if e, ok := c.elements.ByName(in); ok {
		return NewNuclideID(e.Z, 0, 0), nil
	}

	var symbol, mass string
	meta := 0
	if m := symbolMassRe.FindStringSubmatch(in); m != nil {
		symbol, mass = m[1], m[2]
		if m[3] != "" {
			meta = 1
		}
	} else if m := massSymbolRe.FindStringSubmatch(in); m != nil {
		mass, symbol = m[1], m[2]
	} else {
		return 0, &UnknownNuclideError{Input: s}
	}

	e, ok := c.elements.BySymbol(symbol)
	if !ok {
		return 0, &UnknownNuclideError{Input: s}
	}
	a, _ := strconv.Atoi(mass) // regexp guarantees digits
	id := NewNuclideID(e.Z, a, meta)
	if !c.valid(id) {
		return 0, &UnknownNuclideError{Input: s}
	}
	return id, nil
}

// Decode returns the display name for id: "He" for elements, "He4" for
// isotopes, "Am242M" for metastable states.
func (c *Codec) Decode(id NuclideID) (string, error) {
	if !c.valid(id) {
		return "", &UnknownNuclideError{ID: id}
	}
	e, _ := c.elements.ByZ(id.Z())
	if id.IsElement() {
		return e.Symbol, nil
	}
	name := e.Symbol + strconv.Itoa(id.A())
	if id.M() == 1 {
		name += "M"
	}
	return name, nil
}

// ElementOf projects an isotope id down to its element id.
func (c *Codec) ElementOf(id NuclideID) NuclideID {
	return id.Element()
}

// Elements enumerates every element id the codec knows, ascending.
func (c *Codec) Elements() []NuclideID {
	all := c.elements.All()
	ids := make([]NuclideID, len(all))
	for i, e := range all {
		ids[i] = NewNuclideID(e.Z, 0, 0)
	}
	return ids
}

func (c *Codec) valid(id NuclideID) bool {
	if id <= 0 {
		return false
	}
	if _, ok := c.elements.ByZ(id.Z()); !ok {
		return false
	}
	if id.A() == 0 {
		return id.M() == 0
	}
	return id.A() >= id.Z() && id.A() <= MaxMassNumber && id.M() <= 1
}
