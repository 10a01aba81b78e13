package sheetsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/api/sheets/v4"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend is an in-process spreadsheet. It stores cell text, records format
// requests and applies row deletions. Used for dry runs and tests.
type MemoryBackend struct {
	mu       sync.Mutex
	sheets   map[string]*memSheet
	titles   []string
	nextID   int64
	requests []*sheets.Request
	calls    int

	failures []error // returned by the next calls, in order
}

type memSheet struct {
	id    int64
	cells [][]string // cells[row-1][col]
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sheets: make(map[string]*memSheet)}
}

// FailNext makes the next len(errs) backend calls return errs in order.
func (m *MemoryBackend) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

func (m *MemoryBackend) injected() error {
	m.calls++
	if len(m.failures) == 0 {
		return nil
	}
	err := m.failures[0]
	m.failures = m.failures[1:]
	return err
}

// Calls returns the number of backend calls made, including failed ones.
func (m *MemoryBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns every format request received so far.
func (m *MemoryBackend) Requests() []*sheets.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*sheets.Request(nil), m.requests...)
}

// Titles returns sheet titles in creation order.
func (m *MemoryBackend) Titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titles...)
}

// Cell returns the text at a 1-based row and a column letter, for inspection.
func (m *MemoryBackend) Cell(sheet string, row int, col string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[sheet]
	if !ok {
		return ""
	}
	c, err := columnIndex(col)
	if err != nil || row < 1 || row > len(s.cells) || c >= len(s.cells[row-1]) {
		return ""
	}
	return s.cells[row-1][c]
}

func (m *MemoryBackend) EnsureSheet(_ context.Context, title string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return 0, false, err
	}
	if s, ok := m.sheets[title]; ok {
		return s.id, false, nil
	}
	s := &memSheet{id: m.nextID}
	m.nextID++
	m.sheets[title] = s
	m.titles = append(m.titles, title)
	return s.id, true, nil
}

func (m *MemoryBackend) ReadRange(_ context.Context, rng string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}
	r, err := parseA1(rng)
	if err != nil {
		return nil, err
	}
	s, ok := m.sheets[r.sheet]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s", rng)
	}

	last := r.toRow
	if last == 0 || last > len(s.cells) {
		last = len(s.cells)
	}
	var out [][]string
	for row := r.fromRow; row <= last; row++ {
		var line []string
		src := s.cells[row-1]
		for c := r.fromCol; c <= r.toCol && c < len(src); c++ {
			line = append(line, src[c])
		}
		out = append(out, trimRight(line))
	}
	// trailing empty rows are not returned
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *MemoryBackend) WriteRange(_ context.Context, rng string, values [][]interface{}, _ ValueInputMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}
	r, err := parseA1(rng)
	if err != nil {
		return err
	}
	s, ok := m.sheets[r.sheet]
	if !ok {
		return fmt.Errorf("unable to parse range: %s", rng)
	}
	for i, rowValues := range values {
		row := r.fromRow + i
		if r.toRow != 0 && row > r.toRow {
			return fmt.Errorf("range %s is smaller than the %d rows written", rng, len(values))
		}
		for j, v := range rowValues {
			col := r.fromCol + j
			if col > r.toCol {
				return fmt.Errorf("range %s is narrower than the %d values written", rng, len(rowValues))
			}
			s.set(row, col, cellText(v))
		}
	}
	return nil
}

func (m *MemoryBackend) BatchFormat(_ context.Context, requests []*sheets.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}
	for _, req := range requests {
		m.requests = append(m.requests, req)
		if req.DeleteDimension == nil || req.DeleteDimension.Range.Dimension != "ROWS" {
			continue
		}
		dr := req.DeleteDimension.Range
		for _, s := range m.sheets {
			if s.id == dr.SheetId {
				s.deleteRows(int(dr.StartIndex), int(dr.EndIndex))
			}
		}
	}
	return nil
}

func (s *memSheet) set(row, col int, v string) {
	for len(s.cells) < row {
		s.cells = append(s.cells, nil)
	}
	line := s.cells[row-1]
	for len(line) <= col {
		line = append(line, "")
	}
	line[col] = v
	s.cells[row-1] = line
}

// deleteRows removes 0-based rows [start, end).
func (s *memSheet) deleteRows(start, end int) {
	if start >= len(s.cells) {
		return
	}
	if end > len(s.cells) {
		end = len(s.cells)
	}
	s.cells = append(s.cells[:start], s.cells[end:]...)
}

func trimRight(line []string) []string {
	for len(line) > 0 && line[len(line)-1] == "" {
		line = line[:len(line)-1]
	}
	return line
}

// cellText mirrors how the spreadsheet shows a written value.
func cellText(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

type a1Range struct {
	sheet   string
	fromCol int
	fromRow int // 1-based; whole-column ranges start at 1
	toCol   int
	toRow   int // 0 = open-ended
}

func parseA1(s string) (a1Range, error) {
	bang := strings.LastIndex(s, "!")
	if bang < 0 {
		return a1Range{}, fmt.Errorf("range %q has no sheet", s)
	}
	r := a1Range{sheet: s[:bang]}
	if strings.HasPrefix(r.sheet, "'") && strings.HasSuffix(r.sheet, "'") && len(r.sheet) >= 2 {
		r.sheet = strings.ReplaceAll(r.sheet[1:len(r.sheet)-1], "''", "'")
	}

	from, to, found := strings.Cut(s[bang+1:], ":")
	if !found {
		to = from
	}
	var err error
	if r.fromCol, r.fromRow, err = parseCell(from); err != nil {
		return a1Range{}, err
	}
	if r.toCol, r.toRow, err = parseCell(to); err != nil {
		return a1Range{}, err
	}
	if r.fromRow == 0 {
		r.fromRow = 1
	}
	return r, nil
}

// parseCell splits "U14" into column 20 and row 14; a bare column has row 0.
func parseCell(cell string) (int, int, error) {
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		i++
	}
	col, err := columnIndex(cell[:i])
	if err != nil {
		return 0, 0, err
	}
	if i == len(cell) {
		return col, 0, nil
	}
	row, err := strconv.Atoi(cell[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid cell %q", cell)
	}
	return col, row, nil
}

func columnIndex(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("missing column")
	}
	n := 0
	for _, ch := range letters {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column %q", letters)
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, nil
}
