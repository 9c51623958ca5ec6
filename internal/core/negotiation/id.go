package negotiation

import "fmt"

// GenerateReference generates a session reference number from the current max.
// The format is NEG-XXXX where XXXX is a zero-padded 4-digit number.
func GenerateReference(currentMax int) string {
	return fmt.Sprintf("NEG-%04d", currentMax+1)
}

// ParseReferenceNumber extracts the numeric portion from a reference.
// Returns -1 if the reference format is invalid.
func ParseReferenceNumber(ref string) int {
	var num int
	_, err := fmt.Sscanf(ref, "NEG-%d", &num)
	if err != nil {
		return -1
	}
	return num
}

// GenerateClauseID generates a session-local clause ID from the current max.
func GenerateClauseID(currentMax int) string {
	return fmt.Sprintf("CL-%03d", currentMax+1)
}

// ParseClauseNumber extracts the numeric portion from a clause ID.
// Returns -1 if the ID format is invalid.
func ParseClauseNumber(id string) int {
	var num int
	_, err := fmt.Sscanf(id, "CL-%d", &num)
	if err != nil {
		return -1
	}
	return num
}
