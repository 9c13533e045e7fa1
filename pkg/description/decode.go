package description

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/acrasync/pkg/models"
	"github.com/kiranshivaraju/acrasync/pkg/runfor"
)

// line is one line of a description with its byte span, terminator excluded.
type line struct {
	num   int
	start int
	end   int
	text  string
}

// splitLines splits s on \n, \r\n, \r, NEL and the Unicode line and paragraph separators.
func splitLines(s string) []line {
	var lines []line
	num, start := 1, 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '\n', '\r', '\u0085', '\u2028', '\u2029':
			lines = append(lines, line{num: num, start: start, end: i, text: s[start:i]})
			i += size
			if r == '\r' && i < len(s) && s[i] == '\n' {
				i++
			}
			num++
			start = i
		default:
			i += size
		}
	}
	return append(lines, line{num: num, start: start, end: len(s), text: s[start:]})
}

// block is the byte span of the stacktrace block, tags included.
type block struct {
	start int
	end   int
	inner string
}

func (b block) overlaps(l line) bool {
	return l.end > b.start && l.start < b.end
}

// findStacktrace locates the text between the first start tag and the last end tag.
// The tags are matched case-insensitively.
func findStacktrace(raw string) (block, error) {
	lower := asciiLower(raw)
	start := strings.Index(lower, asciiLower(StacktraceStartTag))
	if start < 0 {
		return block{}, parseError(ErrNoStacktraceBlock, 0, "missing %s", StacktraceStartTag)
	}
	innerStart := start + len(StacktraceStartTag)
	end := strings.LastIndex(lower, asciiLower(StacktraceEndTag))
	if end < innerStart {
		return block{}, parseError(ErrNoStacktraceBlock, 0, "missing %s", StacktraceEndTag)
	}

	inner := raw[innerStart:end]
	if containsFold(inner, StacktraceStartTag) || containsFold(inner, StacktraceEndTag) {
		return block{}, parseError(ErrInvalidStacktraceBlock, lineOf(raw, innerStart), "nested block delimiter")
	}
	return block{start: start, end: end + len(StacktraceEndTag), inner: inner}, nil
}

func lineOf(raw string, offset int) int {
	for _, l := range splitLines(raw) {
		if offset <= l.end {
			return l.num
		}
	}
	return 0
}

// tableLayout describes one version of the occurrence table.
type tableLayout struct {
	header  string
	columns int
	row     func(c Codec, cells []string) (models.Occurrence, error)
}

// readTable collects the occurrences of the single table found outside the stacktrace
// block. A table is its header line followed by lines starting with '|'; blank lines
// between rows are allowed and any other line ends the table.
func (c Codec) readTable(lines []line, stack block, layout tableLayout) (*models.OccurrenceSet, error) {
	set := &models.OccurrenceSet{}
	tables := 0
	inTable := false

	for _, l := range lines {
		if stack.overlaps(l) {
			inTable = false
			continue
		}

		text := strings.TrimSpace(l.text)
		switch {
		case strings.EqualFold(text, layout.header):
			tables++
			if tables > 1 {
				return nil, parseError(ErrMultipleOccurrenceTables, l.num, "second table header")
			}
			inTable = true
		case inTable && text == "":
		case inTable && strings.HasPrefix(text, "|"):
			cells, err := splitRow(text, layout.columns)
			if err != nil {
				return nil, parseError(ErrMalformedRow, l.num, "%v", err)
			}
			o, err := layout.row(c, cells)
			if err != nil {
				return nil, parseError(ErrMalformedRow, l.num, "%v", err)
			}
			set.Add(o)
		default:
			inTable = false
		}
	}

	if tables == 0 {
		return nil, parseError(ErrNoOccurrenceTable, 0, "missing header %s", layout.header)
	}
	if set.Len() == 0 {
		return nil, parseError(ErrNoOccurrences, 0, "table has no rows")
	}
	return set, nil
}

// splitRow returns the unescaped cells of "|a|b|...|".
func splitRow(text string, columns int) ([]string, error) {
	if len(text) < 2 || text[len(text)-1] != '|' {
		return nil, errors.New("row must start and end with '|'")
	}
	cells := strings.Split(text[1:len(text)-1], "|")
	if len(cells) != columns {
		return nil, fmt.Errorf("expected %d cells, got %d", columns, len(cells))
	}
	for i := range cells {
		cells[i] = unescapeCell(cells[i])
	}
	return cells, nil
}

func (c Codec) parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, c.location())
}

var currentLayout = tableLayout{
	header:  TableHeader,
	columns: tableColumns,
	row: func(c Codec, cells []string) (models.Occurrence, error) {
		if cells[0] == "" {
			return models.Occurrence{}, errors.New("empty report id")
		}
		crashDate, err := c.parseDate(cells[1])
		if err != nil {
			return models.Occurrence{}, err
		}
		runFor, err := runfor.ParseDuration(cells[2])
		if err != nil {
			return models.Occurrence{}, err
		}
		return models.Occurrence{
			ReportID:       cells[0],
			CrashDate:      crashDate,
			RunFor:         runFor,
			AndroidVersion: cells[3],
			AppVersionCode: cells[4],
			AppVersionName: cells[5],
			Device:         cells[6],
		}, nil
	},
}

func (c Codec) decodeCurrent(raw, fingerprint string) (*Description, error) {
	return c.decodeLayout(raw, fingerprint, CurrentVersion, currentLayout)
}

func (c Codec) decodeLayout(raw, fingerprint string, version int, layout tableLayout) (*Description, error) {
	stack, err := findStacktrace(raw)
	if err != nil {
		return nil, err
	}
	occurrences, err := c.readTable(splitLines(raw), stack, layout)
	if err != nil {
		return nil, err
	}
	return &Description{
		Version:     version,
		Stacktrace:  stack.inner,
		Fingerprint: fingerprint,
		Occurrences: occurrences,
	}, nil
}
