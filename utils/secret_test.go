package utils

import "testing"

func TestSecretMatches(t *testing.T) {
	tests := []struct {
		name       string
		presented  string
		configured string
		want       bool
	}{
		{"exact", "s3cret", "s3cret", true},
		{"mismatch", "s3cret", "other", false},
		{"prefix only", "s3c", "s3cret", false},
		{"empty presented", "", "s3cret", false},
		{"unconfigured", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SecretMatches(tt.presented, tt.configured); got != tt.want {
				t.Errorf("SecretMatches(%q, %q) = %v, want %v", tt.presented, tt.configured, got, tt.want)
			}
		})
	}
}

func TestBearerMatches(t *testing.T) {
	if !BearerMatches("Bearer abc", "abc") {
		t.Error("expected exact bearer header to match")
	}
	for _, h := range []string{"", "abc", "bearer abc", "Bearer  abc", "Bearer abcd", "Basic abc"} {
		if BearerMatches(h, "abc") {
			t.Errorf("BearerMatches(%q) = true, want false", h)
		}
	}
	if BearerMatches("Bearer ", "") {
		t.Error("unconfigured secret must never match")
	}
}

func TestBearerHeader(t *testing.T) {
	if got := BearerHeader(" abc "); got != "Bearer abc" {
		t.Errorf("BearerHeader = %q", got)
	}
}
