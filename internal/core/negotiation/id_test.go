package negotiation

import "testing"

func TestGenerateReference(t *testing.T) {
	tests := []struct {
		name       string
		currentMax int
		want       string
	}{
		{name: "first session (max=0)", currentMax: 0, want: "NEG-0001"},
		{name: "tenth session (max=9)", currentMax: 9, want: "NEG-0010"},
		{name: "four-digit boundary (max=9999)", currentMax: 9999, want: "NEG-10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateReference(tt.currentMax)
			if got != tt.want {
				t.Errorf("GenerateReference(%d) = %q, want %q", tt.currentMax, got, tt.want)
			}
		})
	}
}

func TestParseReferenceNumber(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want int
	}{
		{name: "padded", ref: "NEG-0001", want: 1},
		{name: "large", ref: "NEG-10000", want: 10000},
		{name: "wrong prefix", ref: "CASE-0001", want: -1},
		{name: "empty", ref: "", want: -1},
		{name: "no number", ref: "NEG-", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReferenceNumber(tt.ref)
			if got != tt.want {
				t.Errorf("ParseReferenceNumber(%q) = %d, want %d", tt.ref, got, tt.want)
			}
		})
	}
}

func TestClauseIDRoundTrip(t *testing.T) {
	id := GenerateClauseID(6)
	if id != "CL-007" {
		t.Fatalf("GenerateClauseID(6) = %q, want CL-007", id)
	}
	if got := ParseClauseNumber(id); got != 7 {
		t.Errorf("ParseClauseNumber(%q) = %d, want 7", id, got)
	}
	if got := ParseClauseNumber("clause-1"); got != -1 {
		t.Errorf("ParseClauseNumber(clause-1) = %d, want -1", got)
	}
}
