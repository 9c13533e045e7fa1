package models

import (
	"sort"
	"time"
)

// Occurrence is one crash report recorded against a tracked issue.
// Values are immutable once built; OccurrenceSet stores copies.
type Occurrence struct {
	ReportID       string        `json:"report_id"`
	CrashDate      time.Time     `json:"crash_date"`
	RunFor         time.Duration `json:"run_for"`
	AndroidVersion string        `json:"android_version"`
	AppVersionCode string        `json:"app_version_code"`
	AppVersionName string        `json:"app_version_name"`
	Device         string        `json:"device"`
}

// DeviceName builds the device column value from the ACRA phone fields.
func DeviceName(model, brand, product string) string {
	return model + " / " + brand + " / " + product
}

// OccurrenceSet maps report ids to occurrences. It only grows: adding an id
// that is already present keeps the first occurrence.
// The zero value is ready to use.
type OccurrenceSet struct {
	byID map[string]Occurrence
}

// NewOccurrenceSet builds a set from the given occurrences.
func NewOccurrenceSet(occurrences ...Occurrence) *OccurrenceSet {
	s := &OccurrenceSet{}
	for _, o := range occurrences {
		s.Add(o)
	}
	return s
}

// Add inserts o and reports whether it was new.
func (s *OccurrenceSet) Add(o Occurrence) bool {
	if s.byID == nil {
		s.byID = make(map[string]Occurrence)
	}
	if _, exists := s.byID[o.ReportID]; exists {
		return false
	}
	s.byID[o.ReportID] = o
	return true
}

// Get returns the occurrence recorded for reportID.
func (s *OccurrenceSet) Get(reportID string) (Occurrence, bool) {
	if s == nil {
		return Occurrence{}, false
	}
	o, ok := s.byID[reportID]
	return o, ok
}

// Has reports whether reportID is part of the set.
func (s *OccurrenceSet) Has(reportID string) bool {
	_, ok := s.Get(reportID)
	return ok
}

// Len returns the number of occurrences.
func (s *OccurrenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}

// Sorted returns the occurrences ordered by crash date, then report id.
// Returns an empty slice for an empty set (never nil).
func (s *OccurrenceSet) Sorted() []Occurrence {
	out := make([]Occurrence, 0, s.Len())
	if s == nil {
		return out
	}
	for _, o := range s.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CrashDate.Equal(out[j].CrashDate) {
			return out[i].CrashDate.Before(out[j].CrashDate)
		}
		return out[i].ReportID < out[j].ReportID
	})
	return out
}

// ReportIDs returns the sorted report ids of the set.
func (s *OccurrenceSet) ReportIDs() []string {
	ids := make([]string, 0, s.Len())
	if s == nil {
		return ids
	}
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
