package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseCustomerID tests customer key parsing
func TestParseCustomerID(t *testing.T) {
	tests := []struct {
		input    string
		expected CustomerID
		hasError bool
	}{
		{"c-1", CustomerID("c-1"), false},
		{"  c-2 ", CustomerID("c-2"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseCustomerID(test.input)
		if test.hasError {
			if err == nil {
				t.Errorf("ParseCustomerID(%q) expected error, got nil", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCustomerID(%q) unexpected error: %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("ParseCustomerID(%q) = %q, want %q", test.input, result, test.expected)
		}
	}
}

func TestParseRunID(t *testing.T) {
	if _, err := ParseRunID(" "); err == nil {
		t.Error("Expected error for blank run ID")
	}
	id := NewRunID()
	parsed, err := ParseRunID(id.String())
	if err != nil || parsed != id {
		t.Errorf("ParseRunID round trip failed: %v %q", err, parsed)
	}
}

func TestDomainIDsIsEmpty(t *testing.T) {
	if !CustomerID("").IsEmpty() || CustomerID("c-1").IsEmpty() {
		t.Error("CustomerID.IsEmpty mismatch")
	}
	if !RunID("").IsEmpty() || NewRunID().IsEmpty() {
		t.Error("RunID.IsEmpty mismatch")
	}
}
