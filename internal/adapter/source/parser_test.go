package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const massLines = `1    N-Z    N    Z   A  EL    O     MASS EXCESS(keV)     BINDING ENERGY/A (keV)        BETA-DECAY ENERGY(keV)      ATOMIC MASS (micro-u)
0  1    1    0    1 n         8071.3171     0.0005       0.0        0.0    B-    782.3470    0.0005   1 008664.9157    0.0006
  -1    0    1    1 H         7288.9705     0.0001       0.0        0.0    B-      *                 1 007825.0321    0.0001
   0    1    1    2 H        13135.7216     0.0003    1112.2831    0.0002 B-      *                 2 014101.7780    0.0004
  -2    4    6   10 C        15698.6       0.4     6032.04    0.04  B-  -3648.06    0.40    10 016853.2#     0.4#
   1    2    1    3 H        14949.8060     0.0023    2827.2654    0.0008 B-     18.5912    0.0023   3 016049.2777
`

func testCodec() *domain.Codec {
	return domain.NewCodec(domain.NewElementTable([]domain.Element{
		{Z: 1, Symbol: "H", Name: "Hydrogen"},
		{Z: 2, Symbol: "He", Name: "Helium"},
		{Z: 17, Symbol: "Cl", Name: "Chlorine"},
	}))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func writeKAERIPages(t *testing.T, dir string, pages map[string]string) {
	t.Helper()
	for symbol, body := range pages {
		writeFile(t, filepath.Join(dir, KAERIDir, symbol+".html"), body)
	}
}

var samplePages = map[string]string{
	"H": strings.Join([]string{
		`<html><body><ul>`,
		`<li><a href="/cgi-bin/nuclide?nuc=H1">H1</a> (99.985%)</li>`,
		`<li><a href="/cgi-bin/nuclide?nuc=H2">H2</a> ( 0.015 % )</li>`,
		`<li><a href="/cgi-bin/nuclide?nuc=H3">H3</a> 12.32 y</li>`,
		`</ul></body></html>`,
	}, "\n"),
	"He": strings.Join([]string{
		`<a href="/cgi-bin/nuclide?nuc=He3">He3</a> (0.000137%)`,
		`<a href="/cgi-bin/nuclide?nuc=He4">He4</a> (99.999863%)`,
	}, "\n"),
	"Cl": strings.Join([]string{
		`<a href="/cgi-bin/nuclide?nuc=Cl35">Cl35</a> (75.77%)`,
		`<a href="/cgi-bin/nuclide?nuc=Cl37">Cl37</a> (24.23%)`,
		`<a href="/cgi-bin/nuclide?nuc=Xx5">Xx5</a> (1.0%)`,
	}, "\n"),
}

func TestParser_ParseAbundances(t *testing.T) {
	dir := t.TempDir()
	writeKAERIPages(t, dir, samplePages)

	p := NewParser(testCodec(), "mass.mas03", discardLogger())
	got, err := p.ParseAbundances(dir)
	require.NoError(t, err)

	want := domain.Abundances{
		10010:  0.99985,
		10020:  0.00015,
		20030:  0.00000137,
		20040:  0.99999863,
		170350: 0.7577,
		170370: 0.2423,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("abundances mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_ParseAbundances_MissingPage(t *testing.T) {
	dir := t.TempDir()
	writeKAERIPages(t, dir, map[string]string{"H": samplePages["H"], "He": samplePages["He"]})

	p := NewParser(testCodec(), "mass.mas03", discardLogger())
	_, err := p.ParseAbundances(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "Cl.html")
}

func TestParser_ParseAbundances_EmptyPages(t *testing.T) {
	dir := t.TempDir()
	writeKAERIPages(t, dir, map[string]string{"H": "", "He": "", "Cl": "<html></html>"})

	p := NewParser(testCodec(), "mass.mas03", discardLogger())
	got, err := p.ParseAbundances(dir)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParser_ParseMasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mass.mas03"), massLines)

	p := NewParser(testCodec(), "mass.mas03", discardLogger())
	got, err := p.ParseMasses(dir)
	require.NoError(t, err)

	want := []domain.MassRecord{
		{ID: 10010, Mass: 1.0078250321, Uncertainty: 0.0001e-6},
		{ID: 10020, Mass: 2.0141017780, Uncertainty: 0.0004e-6},
		{ID: 60100, Mass: 10.0168532, Uncertainty: 0.4e-6},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("masses mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_ParseMasses_MissingFile(t *testing.T) {
	p := NewParser(testCodec(), "mass.mas03", discardLogger())
	_, err := p.ParseMasses(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestParseMassLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
		id   domain.NuclideID
	}{
		{"hydrogen", "  -1    0    1    1 H         7288.9705     0.0001       0.0        0.0    B-      *                 1 007825.0321    0.0001", true, 10010},
		{"estimated value", "  -2    4    6   10 C        15698.6       0.4     6032.04    0.04  B-  -3648.06    0.40    10 016853.2#     0.4#", true, 60100},
		{"neutron", "0  1    1    0    1 n         8071.3171     0.0005       0.0        0.0    B-    782.3470    0.0005   1 008664.9157    0.0006", false, 0},
		{"header", "1    N-Z    N    Z   A  EL    O     MASS EXCESS(keV)", false, 0},
		{"blank", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := parseMassLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, rec.ID)
		})
	}
}
