// Package description encodes and decodes the block of text this system keeps in a
// bugtracker issue description: a textile table of crash occurrences, the canonical
// stacktrace of the bug and a hidden version marker.
//
// The current layout is:
//
//	|_. ACRA report id|_. crash date|_. run for|_. android|_\2. app version|_. device|
//	|<id>|<dd/MM/yyyy HH:mm:ss>|<run for>|<android>|<version code>|<version name>|<device>|
//	...
//
//
//	*Stacktrace*
//	<pre class="javastacktrace"><stacktrace></pre>
//	%{visibility:hidden}description_version_2%
//
// Reading is version tolerant (a description without marker is version 1), writing
// always produces CurrentVersion.
package description

import (
	"time"

	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// CurrentVersion is the layout version written by Encode.
const CurrentVersion = 2

const (
	// TableHeader opens the occurrence table.
	TableHeader = `|_. ACRA report id|_. crash date|_. run for|_. android|_\2. app version|_. device|`

	// StacktraceStartTag and StacktraceEndTag delimit the stacktrace block.
	StacktraceStartTag = `<pre class="javastacktrace">`
	StacktraceEndTag   = `</pre>`

	// DateLayout renders crash dates as dd/MM/yyyy HH:mm:ss.
	DateLayout = "02/01/2006 15:04:05"

	stacktraceTitle = "*Stacktrace*"
	tableColumns    = 7
)

// Description is the decoded content of an issue description.
type Description struct {
	Version     int
	Stacktrace  string
	Fingerprint string
	Occurrences *models.OccurrenceSet
}

// Add records a new occurrence and reports whether the report id was unknown.
func (d *Description) Add(o models.Occurrence) bool {
	if d.Occurrences == nil {
		d.Occurrences = &models.OccurrenceSet{}
	}
	return d.Occurrences.Add(o)
}

// Has reports whether the description already lists reportID.
func (d *Description) Has(reportID string) bool {
	return d.Occurrences.Has(reportID)
}

// Codec encodes and decodes descriptions. Crash dates are rendered and read in
// Location; a nil Location means UTC.
type Codec struct {
	Location *time.Location
}

// NewCodec returns a Codec rendering dates in loc.
func NewCodec(loc *time.Location) Codec {
	return Codec{Location: loc}
}

// Default renders dates in UTC.
var Default = Codec{Location: time.UTC}

func (c Codec) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Encode is Default.Encode.
func Encode(stacktrace string, occurrences *models.OccurrenceSet) (string, error) {
	return Default.Encode(stacktrace, occurrences)
}

// EncodeDescription is Default.EncodeDescription.
func EncodeDescription(d *Description) (string, error) {
	return Default.EncodeDescription(d)
}

// Decode is Default.Decode.
func Decode(raw, fingerprint string) (*Description, error) {
	return Default.Decode(raw, fingerprint)
}

// DecodeAny is Default.DecodeAny.
func DecodeAny(raw, fingerprint string) (*Description, error) {
	return Default.DecodeAny(raw, fingerprint)
}
