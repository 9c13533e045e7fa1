package description

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/acrasync/pkg/models"
	"github.com/kiranshivaraju/acrasync/pkg/runfor"
)

// Encode renders the occurrence table followed by the stacktrace block and the
// version marker. Occurrences are written in crash date order, then by report id.
// The stacktrace is trimmed; it must not contain a block delimiter.
func (c Codec) Encode(stacktrace string, occurrences *models.OccurrenceSet) (string, error) {
	trimmed := strings.TrimSpace(stacktrace)
	if containsFold(trimmed, StacktraceStartTag) || containsFold(trimmed, StacktraceEndTag) {
		return "", ErrInvalidStacktrace
	}
	if occurrences.Len() == 0 {
		return "", ErrNoOccurrences
	}

	var b strings.Builder
	b.WriteString(TableHeader)
	b.WriteByte('\n')
	for _, o := range occurrences.Sorted() {
		if o.ReportID == "" {
			return "", ErrEmptyReportID
		}
		b.WriteString(c.row(o))
		b.WriteByte('\n')
	}

	b.WriteString("\n\n")
	b.WriteString(stacktraceTitle)
	b.WriteByte('\n')
	b.WriteString(StacktraceStartTag)
	b.WriteString(trimmed)
	b.WriteString(StacktraceEndTag)
	b.WriteByte('\n')
	b.WriteString(VersionTag(CurrentVersion))

	return b.String(), nil
}

// EncodeDescription encodes d. The version of d is ignored.
func (c Codec) EncodeDescription(d *Description) (string, error) {
	return c.Encode(d.Stacktrace, d.Occurrences)
}

func (c Codec) row(o models.Occurrence) string {
	return fmt.Sprintf("|%s|%s|%s|%s|%s|%s|%s|",
		escapeCell(o.ReportID),
		o.CrashDate.In(c.location()).Format(DateLayout),
		runfor.FormatDuration(o.RunFor),
		escapeCell(o.AndroidVersion),
		escapeCell(o.AppVersionCode),
		escapeCell(o.AppVersionName),
		escapeCell(o.Device),
	)
}
