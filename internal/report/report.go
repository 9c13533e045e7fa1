// Package report turns raw ACRA spreadsheet rows into reports and occurrences.
package report

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/acrasync/pkg/fingerprint"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// MaxSubjectLength is the longest issue subject the bugtracker accepts.
const MaxSubjectLength = 255

var (
	ErrMissingField = errors.New("missing mandatory field")
	ErrInvalidDate  = errors.New("invalid date")
)

// ACRA writes dates as 2011-05-11T20:42:40.000+02:00; older reports drop the colon
// from the offset.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// Parser builds reports, fingerprinting their stacktrace with hasher.
type Parser struct {
	hasher fingerprint.Hasher
}

// NewParser returns a Parser using hasher.
func NewParser(hasher fingerprint.Hasher) *Parser {
	return &Parser{hasher: hasher}
}

// Parse uses the default fingerprint.
func Parse(raw models.RawReport) (*models.Report, error) {
	return NewParser(fingerprint.Default).Parse(raw)
}

// Parse validates raw and returns the report. Errors are *models.MalformedInputError.
func (p *Parser) Parse(raw models.RawReport) (*models.Report, error) {
	values := make(map[models.ReportField]string, len(models.ReportFields))
	for _, field := range models.ReportFields {
		v, _ := raw.Get(field)
		if field.Mandatory() && strings.TrimSpace(v) == "" {
			return nil, &models.MalformedInputError{Field: field, Value: v, Err: ErrMissingField}
		}
		values[field] = v
	}

	crashDate, err := ParseDate(values[models.FieldUserCrashDate])
	if err != nil {
		return nil, &models.MalformedInputError{Field: models.FieldUserCrashDate, Value: values[models.FieldUserCrashDate], Err: err}
	}

	var startDate time.Time
	if v := values[models.FieldUserAppStartDate]; strings.TrimSpace(v) != "" {
		startDate, err = ParseDate(v)
		if err != nil {
			return nil, &models.MalformedInputError{Field: models.FieldUserAppStartDate, Value: v, Err: err}
		}
	}

	return &models.Report{
		Row:          raw.Row,
		Values:       values,
		CrashDate:    crashDate,
		AppStartDate: startDate,
		Fingerprint:  p.hasher.Stacktrace(values[models.FieldStackTrace]),
		Status:       models.SyncStatusNotStarted,
	}, nil
}

// ParseDate reads an ACRA timestamp.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ToOccurrence derives the occurrence recorded in the issue description. The run-for
// duration is zero when the start date is unknown or after the crash.
func ToOccurrence(r *models.Report) models.Occurrence {
	var runFor time.Duration
	if !r.AppStartDate.IsZero() && r.CrashDate.After(r.AppStartDate) {
		runFor = r.CrashDate.Sub(r.AppStartDate)
	}
	return models.Occurrence{
		ReportID:       r.ID(),
		CrashDate:      r.CrashDate,
		RunFor:         runFor,
		AndroidVersion: r.Value(models.FieldAndroidVersion),
		AppVersionCode: r.Value(models.FieldAppVersionCode),
		AppVersionName: r.Value(models.FieldAppVersionName),
		Device: models.DeviceName(
			r.Value(models.FieldPhoneModel),
			r.Value(models.FieldBrand),
			r.Value(models.FieldProduct),
		),
	}
}

// Subject returns the first line of the stacktrace, cut to MaxSubjectLength characters.
func Subject(stacktrace string) string {
	s := strings.TrimSpace(stacktrace)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if utf8.RuneCountInString(s) <= MaxSubjectLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxSubjectLength])
}
