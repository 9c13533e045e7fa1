package description

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDescription = `%{visibility:hidden}occurrences_8a3f_start%
|_. ACRA report id|_. date|
|r-1|11/05/2011 08:42:40|
|r-2|12/05/2011 09:00:00|
%{visibility:hidden}occurrences_8a3f_end%

*Stacktrace*
%{visibility:hidden}stacktrace_8a3f_start%
<pre class="javastacktrace">java.lang.NullPointerException
	at com.example.Main.onCreate(Main.java:42)</pre>
%{visibility:hidden}stacktrace_8a3f_end%`

func TestDecodeAny_Legacy(t *testing.T) {
	d, err := DecodeAny(legacyDescription, "8a3f")
	require.NoError(t, err)

	assert.Equal(t, 1, d.Version)
	assert.Equal(t, "8a3f", d.Fingerprint)
	assert.Equal(t, "java.lang.NullPointerException\n\tat com.example.Main.onCreate(Main.java:42)", d.Stacktrace)
	assert.Equal(t, []string{"r-1", "r-2"}, d.Occurrences.ReportIDs())

	o, ok := d.Occurrences.Get("r-1")
	require.True(t, ok)
	assert.True(t, time.Date(2011, 5, 11, 8, 42, 40, 0, time.UTC).Equal(o.CrashDate))
	assert.Zero(t, o.RunFor)
	assert.Empty(t, o.Device)
}

func TestDecode_RejectsLegacy(t *testing.T) {
	_, err := Decode(legacyDescription, "8a3f")
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeAny_LegacyErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected error
	}{
		{"current header without marker", TableHeader + "\n|r-1|11/05/2011 08:42:40|0s|a|b|c|d|\n<pre class=\"javastacktrace\">x</pre>", ErrNoOccurrenceTable},
		{"three cells", LegacyTableHeader + "\n|r-1|11/05/2011 08:42:40|x|\n<pre class=\"javastacktrace\">x</pre>", ErrMalformedRow},
		{"no rows", LegacyTableHeader + "\n\n<pre class=\"javastacktrace\">x</pre>", ErrNoOccurrences},
		{"no stacktrace", LegacyTableHeader + "\n|r-1|11/05/2011 08:42:40|", ErrNoStacktraceBlock},
		{"blank", "", ErrNoStacktraceBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAny(tt.raw, "")
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestLegacyUpgrade(t *testing.T) {
	d, err := DecodeAny(legacyDescription, "8a3f")
	require.NoError(t, err)

	upgraded, err := EncodeDescription(d)
	require.NoError(t, err)
	assert.Contains(t, upgraded, "|r-1|11/05/2011 08:42:40|0s|||||\n")
	assert.Equal(t, CurrentVersion, DetectVersion(upgraded))

	again, err := Decode(upgraded, "8a3f")
	require.NoError(t, err)
	assert.Equal(t, d.Stacktrace, again.Stacktrace)
	assert.Equal(t, d.Occurrences.ReportIDs(), again.Occurrences.ReportIDs())
}
