package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
)

var (
	// abundanceRe matches a natural-isotope link with its percentage on a KAERI
	// element page, e.g. `<a href="/cgi-bin/nuclide?nuc=Cl35">Cl35</a> (75.77%)`.
	abundanceRe = regexp.MustCompile(`/cgi-bin/nuclide[?]nuc=([A-Za-z]{1,2}\d{1,3}).*?[(]\s*([\d.]+)\s*%\s*[)]`)

	// massRe matches an AME mass-table row: Z and A before the element symbol,
	// then the atomic mass as integer part, micro-u fraction, and micro-u
	// uncertainty at the end of the line.
	massRe = regexp.MustCompile(`[ \d-]*? (\d{1,3})[ ]{1,4}(\d{1,3}) [A-Z][a-z]? .*? (\d{1,3}) ([ #.\d]{5,12}) ([ #.\d]+)[ ]*?$`)
)

// Parser extracts abundance and mass records from documents laid out by the
// KAERI and AMDC fetchers. It implements pipeline.RecordParser.
type Parser struct {
	codec    *domain.Codec
	massFile string
	logger   *slog.Logger
}

// NewParser creates a Parser reading <rawDir>/KAERI/<symbol>.html for every
// known element and <rawDir>/<massFile> for masses.
func NewParser(codec *domain.Codec, massFile string, logger *slog.Logger) *Parser {
	return &Parser{codec: codec, massFile: massFile, logger: logger}
}

// ParseAbundances reads every element page. A later entry for the same
// isotope replaces an earlier one.
func (p *Parser) ParseAbundances(rawDir string) (domain.Abundances, error) {
	abundances := domain.Abundances{}
	for _, el := range p.codec.Elements() {
		symbol, err := p.codec.Decode(el)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(rawDir, KAERIDir, symbol+".html")
		if err := scanFile(path, func(line string) { p.parseAbundanceLine(line, abundances) }); err != nil {
			return nil, err
		}
	}
	return abundances, nil
}

func (p *Parser) parseAbundanceLine(line string, into domain.Abundances) {
	m := abundanceRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	id, err := p.codec.Encode(m[1])
	if err != nil {
		p.logger.Warn("unknown nuclide in abundance page, skipping", "nuclide", m[1], "error", err)
		return
	}
	pct, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		p.logger.Warn("bad abundance value, skipping", "nuclide", m[1], "value", m[2])
		return
	}
	into[id] = pct * 0.01
}

// ParseMasses reads the AME mass table. Lines that are not data rows are ignored.
func (p *Parser) ParseMasses(rawDir string) ([]domain.MassRecord, error) {
	var masses []domain.MassRecord
	path := filepath.Join(rawDir, p.massFile)
	err := scanFile(path, func(line string) {
		if rec, ok := parseMassLine(line); ok {
			masses = append(masses, rec)
		}
	})
	if err != nil {
		return nil, err
	}
	return masses, nil
}

func parseMassLine(line string) (domain.MassRecord, bool) {
	m := massRe.FindStringSubmatch(line)
	if m == nil {
		return domain.MassRecord{}, false
	}
	z, _ := strconv.Atoi(m[1]) // regexp guarantees digits
	a, _ := strconv.Atoi(m[2])
	whole, _ := strconv.ParseFloat(m[3], 64)
	micro, err := parseMicro(m[4])
	if err != nil {
		return domain.MassRecord{}, false
	}
	uncertainty, err := parseMicro(m[5])
	if err != nil {
		return domain.MassRecord{}, false
	}
	return domain.MassRecord{
		ID:          domain.NewNuclideID(z, a, 0),
		Mass:        whole + 1e-6*micro,
		Uncertainty: 1e-6 * uncertainty,
	}, true
}

// parseMicro parses a micro-u column, dropping the "#" estimate marker.
func parseMicro(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), "#", ""), 64)
}

func scanFile(path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: missing raw document %s", domain.ErrSourceUnavailable, path)
		}
		return fmt.Errorf("%w: open %s: %w", domain.ErrSourceUnavailable, path, err)
	}
	defer f.Close()
	return scanLines(f, path, fn)
}

func scanLines(r io.Reader, name string, fn func(line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fn(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: read %s: %w", domain.ErrSourceUnavailable, name, err)
	}
	return nil
}
