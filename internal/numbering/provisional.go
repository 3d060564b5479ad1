package numbering

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ProvisionalHeader is the CSV header for provisional-numbers.csv.
const ProvisionalHeader = "issued_at,financial_year,number,seq,cause"

const (
	provisionalFields = 5
	provisionalDir    = "logs"
	provisionalFile   = "provisional-numbers.csv"
	colIssuedAt       = 0
	colFinancialYear  = 1
	colNumber         = 2
	colSeq            = 3
	colCause          = 4
)

// ProvisionalLog appends provisional allocations to
// <repoRoot>/logs/provisional-numbers.csv.
type ProvisionalLog struct {
	repoRoot string
}

// NewProvisionalLog creates a log rooted at repoRoot.
func NewProvisionalLog(repoRoot string) *ProvisionalLog {
	return &ProvisionalLog{repoRoot: repoRoot}
}

// Path returns the log file path.
func (l *ProvisionalLog) Path() string {
	return filepath.Join(l.repoRoot, provisionalDir, provisionalFile)
}

// RecordProvisional appends a, creating the file and header if needed.
func (l *ProvisionalLog) RecordProvisional(a Allocation) error {
	if err := os.MkdirAll(filepath.Join(l.repoRoot, provisionalDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := l.Path()
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening provisional log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(ProvisionalHeader, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(marshalAllocation(a)); err != nil {
		return fmt.Errorf("writing provisional number %s: %w", a.Number, err)
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every recorded allocation. A missing file yields nil.
func (l *ProvisionalLog) Read() ([]Allocation, error) {
	f, err := os.Open(l.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening provisional log: %w", err)
	}
	defer f.Close()

	return readAllocations(f)
}

func readAllocations(r io.Reader) ([]Allocation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = provisionalFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading provisional log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var out []Allocation
	for i, rec := range records[1:] {
		a, err := unmarshalAllocation(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func marshalAllocation(a Allocation) []string {
	row := make([]string, provisionalFields)
	row[colIssuedAt] = a.IssuedAt.UTC().Format(time.RFC3339)
	row[colFinancialYear] = a.FinancialYear
	row[colNumber] = a.Number
	row[colSeq] = strconv.FormatInt(a.Seq, 10)
	var unavailable *CounterUnavailableError
	switch {
	case errors.As(a.Err, &unavailable) && unavailable.Err != nil:
		row[colCause] = unavailable.Err.Error()
	case a.Err != nil:
		row[colCause] = a.Err.Error()
	}
	return row
}

func unmarshalAllocation(rec []string) (Allocation, error) {
	issuedAt, err := time.Parse(time.RFC3339, rec[colIssuedAt])
	if err != nil {
		return Allocation{}, fmt.Errorf("parsing issued_at %q: %w", rec[colIssuedAt], err)
	}
	seq, err := strconv.ParseInt(rec[colSeq], 10, 64)
	if err != nil {
		return Allocation{}, fmt.Errorf("parsing seq %q: %w", rec[colSeq], err)
	}

	a := Allocation{
		Number:        rec[colNumber],
		FinancialYear: rec[colFinancialYear],
		Seq:           seq,
		IssuedAt:      issuedAt,
		Provisional:   true,
	}
	if rec[colCause] != "" {
		a.Err = &CounterUnavailableError{FinancialYear: a.FinancialYear, Err: errors.New(rec[colCause])}
	}
	return a, nil
}
