package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// OrderReferencePrefix tags custom order references
	OrderReferencePrefix = "CUST"
	// LedgerReferencePrefix tags advance-ledger references
	LedgerReferencePrefix = "ADV"
)

// ReferenceStem returns the "<PREFIX>-<year>-" part shared by a year's references
func ReferenceStem(prefix string, year int) string {
	return fmt.Sprintf("%s-%d-", prefix, year)
}

// FormatReference renders <PREFIX>-<year>-<seq>, the sequence zero padded to four digits
func FormatReference(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%04d", ReferenceStem(prefix, year), seq)
}

// ParseSequence extracts the trailing sequence number of a reference.
// Malformed references yield zero.
func ParseSequence(reference string) int {
	idx := strings.LastIndex(reference, "-")
	if idx < 0 || idx == len(reference)-1 {
		return 0
	}
	seq, err := strconv.Atoi(reference[idx+1:])
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}

// NextReference returns the reference following the highest one on file
// for the same stem; an empty latest starts the year at 0001.
func NextReference(prefix string, year int, latest string) string {
	return FormatReference(prefix, year, ParseSequence(latest)+1)
}
