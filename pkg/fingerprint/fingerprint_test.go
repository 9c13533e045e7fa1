package fingerprint

import (
	"errors"
	"strings"
	"testing"
)

func TestOf_KnownDigest(t *testing.T) {
	got := Of("java.lang.IllegalArgumentException")
	if got != "1192d86b3d78df71789afac3ff49b39d" {
		t.Errorf("unexpected fingerprint: %s", got)
	}
}

func TestOf_EmptyString(t *testing.T) {
	if got := Of(""); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("unexpected fingerprint for empty string: %s", got)
	}
}

func TestOf_Deterministic(t *testing.T) {
	stack := "java.lang.NullPointerException\n\tat com.example.Main.run(Main.java:42)"
	if Of(stack) != Of(stack) {
		t.Error("same input should produce the same fingerprint")
	}
}

func TestOf_DifferentInputs(t *testing.T) {
	if Of("java.lang.NullPointerException") == Of("java.lang.IllegalStateException") {
		t.Error("different stacktraces should have different fingerprints")
	}
}

func TestSum_DropsLeadingZeroNibbles(t *testing.T) {
	// md5("crash-15") = 06f43e947246c2e3aa0515b05fdb35fe
	got := Default.Sum("crash-15")
	if got != "6f43e947246c2e3aa0515b05fdb35fe" {
		t.Errorf("expected unpadded digest, got %s", got)
	}
	if len(got) != 31 {
		t.Errorf("expected 31 hex chars, got %d", len(got))
	}
}

func TestSum_ZeroPad(t *testing.T) {
	h, err := New("md5", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := h.Sum("crash-15")
	if got != "06f43e947246c2e3aa0515b05fdb35fe" {
		t.Errorf("expected padded digest, got %s", got)
	}
}

func TestSum_IsLowercaseHex(t *testing.T) {
	fp := Of("test message")
	for _, c := range fp {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("fingerprint contains non-lowercase-hex char: %c", c)
			break
		}
	}
}

func TestSum_UTF8(t *testing.T) {
	if Of("é") == Of("e") {
		t.Error("accented and plain letters should differ")
	}
}

func TestSumNullable(t *testing.T) {
	if got := Default.SumNullable(nil); got != nil {
		t.Errorf("expected nil for nil input, got %q", *got)
	}

	s := "java.lang.IllegalArgumentException"
	got := Default.SumNullable(&s)
	if got == nil {
		t.Fatal("expected a fingerprint for non-nil input")
	}
	if *got != Of(s) {
		t.Errorf("expected %s, got %s", Of(s), *got)
	}
}

func TestStacktrace_TrimsWhitespace(t *testing.T) {
	raw := "\n  java.lang.IllegalArgumentException\n\t"
	if Default.Stacktrace(raw) != Of("java.lang.IllegalArgumentException") {
		t.Error("stacktrace fingerprint should ignore surrounding whitespace")
	}
}

func TestNew_Algorithms(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		length    int
	}{
		{"default is md5", "", 32},
		{"md5", "md5", 32},
		{"upper case", "MD5", 32},
		{"sha1", "sha1", 40},
		{"sha256", "sha256", 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.algorithm, true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := h.Sum("java.lang.IllegalArgumentException"); len(got) != tt.length {
				t.Errorf("expected %d hex chars, got %d (%s)", tt.length, len(got), got)
			}
		})
	}
}

func TestNew_SHA256Digest(t *testing.T) {
	h, err := New("sha256", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "6757b394f9b99b54cc59cd8f05528b770054c25bc6643d413f1a7337f96614d0"
	if got := h.Sum("java.lang.IllegalArgumentException"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if h.Algorithm() != "SHA-256" {
		t.Errorf("unexpected algorithm name: %s", h.Algorithm())
	}
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	_, err := New("crc32", false)
	if !errors.Is(err, ErrHashingUnavailable) {
		t.Fatalf("expected ErrHashingUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "crc32") {
		t.Errorf("error should name the algorithm: %v", err)
	}
}
