package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportField is an ACRA report column.
type ReportField string

// ACRA report columns, in spreadsheet order.
const (
	FieldReportID             ReportField = "REPORT_ID"
	FieldAppVersionCode       ReportField = "APP_VERSION_CODE"
	FieldAppVersionName       ReportField = "APP_VERSION_NAME"
	FieldPackageName          ReportField = "PACKAGE_NAME"
	FieldFilePath             ReportField = "FILE_PATH"
	FieldPhoneModel           ReportField = "PHONE_MODEL"
	FieldBrand                ReportField = "BRAND"
	FieldProduct              ReportField = "PRODUCT"
	FieldAndroidVersion       ReportField = "ANDROID_VERSION"
	FieldBuild                ReportField = "BUILD"
	FieldTotalMemSize         ReportField = "TOTAL_MEM_SIZE"
	FieldAvailableMemSize     ReportField = "AVAILABLE_MEM_SIZE"
	FieldCustomData           ReportField = "CUSTOM_DATA"
	FieldStackTrace           ReportField = "STACK_TRACE"
	FieldStackTraceMD5        ReportField = "STACK_TRACE_MD5"
	FieldInitialConfiguration ReportField = "INITIAL_CONFIGURATION"
	FieldCrashConfiguration   ReportField = "CRASH_CONFIGURATION"
	FieldDisplay              ReportField = "DISPLAY"
	FieldUserAppStartDate     ReportField = "USER_APP_START_DATE"
	FieldUserCrashDate        ReportField = "USER_CRASH_DATE"
	FieldDumpsysMeminfo       ReportField = "DUMPSYS_MEMINFO"
	FieldDropbox              ReportField = "DROPBOX"
	FieldLogcat               ReportField = "LOGCAT"
	FieldEventslog            ReportField = "EVENTSLOG"
	FieldRadiolog             ReportField = "RADIOLOG"
	FieldIsSilent             ReportField = "IS_SILENT"
	FieldDeviceID             ReportField = "DEVICE_ID"
	FieldInstallationID       ReportField = "INSTALLATION_ID"
	FieldUserEmail            ReportField = "USER_EMAIL"
	FieldDeviceFeatures       ReportField = "DEVICE_FEATURES"
	FieldEnvironment          ReportField = "ENVIRONMENT"
	FieldSharedPreferences    ReportField = "SHARED_PREFERENCES"
	FieldSettingsSystem       ReportField = "SETTINGS_SYSTEM"
	FieldSettingsSecure       ReportField = "SETTINGS_SECURE"
)

// ReportFields lists every ACRA column.
var ReportFields = []ReportField{
	FieldReportID, FieldAppVersionCode, FieldAppVersionName, FieldPackageName, FieldFilePath,
	FieldPhoneModel, FieldBrand, FieldProduct, FieldAndroidVersion, FieldBuild,
	FieldTotalMemSize, FieldAvailableMemSize, FieldCustomData, FieldStackTrace, FieldStackTraceMD5,
	FieldInitialConfiguration, FieldCrashConfiguration, FieldDisplay, FieldUserAppStartDate,
	FieldUserCrashDate, FieldDumpsysMeminfo, FieldDropbox, FieldLogcat, FieldEventslog,
	FieldRadiolog, FieldIsSilent, FieldDeviceID, FieldInstallationID, FieldUserEmail,
	FieldDeviceFeatures, FieldEnvironment, FieldSharedPreferences, FieldSettingsSystem,
	FieldSettingsSecure,
}

// Tag returns the spreadsheet column tag: the lower-cased name stripped of
// anything but letters and digits (REPORT_ID -> reportid).
func (f ReportField) Tag() string {
	var b strings.Builder
	for _, r := range strings.ToLower(string(f)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Mandatory reports whether a report is unusable without this field.
func (f ReportField) Mandatory() bool {
	switch f {
	case FieldReportID, FieldStackTrace, FieldUserCrashDate:
		return true
	default:
		return false
	}
}

// SyncStatus is the synchronization state of a single report.
type SyncStatus string

const (
	SyncStatusNotStarted SyncStatus = "not_started"
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusSuccess    SyncStatus = "success"
	SyncStatusFailure    SyncStatus = "failure"
)

// Merge returns the status that results from applying next on top of s.
// A failed report stays failed.
func (s SyncStatus) Merge(next SyncStatus) SyncStatus {
	if s == SyncStatusFailure {
		return s
	}
	return next
}

// Report is one ACRA crash report read from the report source.
type Report struct {
	// Row locates the report in its source so the fingerprint can be written back.
	Row          int
	Values       map[ReportField]string
	CrashDate    time.Time
	AppStartDate time.Time
	Fingerprint  string
	Status       SyncStatus
	// IssueID is the ticket the report was synchronized to, once known.
	IssueID int
}

// ID returns the ACRA report id.
func (r *Report) ID() string {
	return r.Values[FieldReportID]
}

// Value returns the raw value of field.
func (r *Report) Value(field ReportField) string {
	return r.Values[field]
}

// Stacktrace returns the raw stack trace of the report.
func (r *Report) Stacktrace() string {
	return r.Values[FieldStackTrace]
}

// MergeStatus applies next with SyncStatus.Merge semantics.
func (r *Report) MergeStatus(next SyncStatus) {
	r.Status = r.Status.Merge(next)
}

// MalformedInputError reports a missing or unparsable report field.
type MalformedInputError struct {
	Field ReportField
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wrong value for '%s'='%s': %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("wrong value for '%s'='%s'", e.Field, e.Value)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// RawReport is an unparsed report row: cell values keyed by column tag.
type RawReport struct {
	Row   int
	Cells map[string]string
}

// Get returns the cell of field.
func (r RawReport) Get(field ReportField) (string, bool) {
	v, ok := r.Cells[field.Tag()]
	return v, ok
}
