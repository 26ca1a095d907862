// Package domain models nuclides and the derived atomic-weight table.
//
// # Identifiers
//
// Nuclides use the zzaaam integer scheme:
//
//	id = Z*10000 + A*10 + M
//
//	Z  atomic number (1..118)
//	A  mass number (0 for a whole element, otherwise Z..300)
//	M  metastable state (0 ground, 1 first excited)
//
//	H1     -> 10010
//	U235   -> 922350
//	Am242M -> 952421
//	He     -> 20000   (element)
//
// Integer division by 10000 groups every isotope of an element under the same
// quotient, so id/10000*10000 is the element id. Ordering by id sorts by Z,
// then A, then M.
//
// Display names use the element symbol with conventional capitalisation,
// followed by the mass number and an "M" suffix for metastable states. Names
// are at most six characters, matching the text column of the stored table.
//
// # Sources
//
// Natural abundances come from the KAERI nuclide pages: each element page
// lists its naturally occurring isotopes with a percentage, e.g.
//
//	<a href="/cgi-bin/nuclide?nuc=Cl35">Cl35</a> (75.77%)
//
// Measured masses come from the AMDC atomic mass evaluation (mass.mas03),
// whose rows end with the atomic mass split into an integer part and a
// micro-u fraction, followed by the uncertainty in micro-u:
//
//	... 1    1 H  ...   1 007825.03207   0.00010
//
// A "#" in the mass columns marks an estimated (non-experimental) value; the
// marker is dropped and the value kept.
//
// # Atomic weight
//
// The element row of the table holds the abundance-weighted mean of its
// isotopes' masses:
//
//	mass(El) = sum over isotopes i of El: mass(i) * abundance(i)
//
// Isotopes with a measured mass but no abundance still get their own row, with
// abundance 0, and contribute nothing to the element. An element with no
// isotope data at all still gets a row with mass 0. Uncertainty and abundance
// are always 0 on element rows: the row is a summary, not a measurement.
package domain
