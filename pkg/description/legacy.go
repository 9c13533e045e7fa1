package description

import (
	"errors"

	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// LegacyTableHeader opens the version 1 occurrence table, which only recorded the
// report id and the crash date. Version 1 descriptions also carried hidden
// occurrences/stacktrace start and end markers; they are not needed to read the table.
const LegacyTableHeader = `|_. ACRA report id|_. date|`

// Version 1 dates used a 12-hour clock without AM/PM marker; the digits are read as
// a 24-hour clock.
var legacyLayout = tableLayout{
	header:  LegacyTableHeader,
	columns: 2,
	row: func(c Codec, cells []string) (models.Occurrence, error) {
		if cells[0] == "" {
			return models.Occurrence{}, errors.New("empty report id")
		}
		crashDate, err := c.parseDate(cells[1])
		if err != nil {
			return models.Occurrence{}, err
		}
		return models.Occurrence{ReportID: cells[0], CrashDate: crashDate}, nil
	},
}

func (c Codec) decodeV1(raw, fingerprint string) (*Description, error) {
	return c.decodeLayout(raw, fingerprint, 1, legacyLayout)
}
