package usecase

import (
	"regexp"
	"strings"
)

const minSegmentLen = 3

// RequestSplitter segments a multi-item utterance into independent
// sub-requests.
type RequestSplitter struct{}

// NewRequestSplitter creates a new request splitter
func NewRequestSplitter() *RequestSplitter {
	return &RequestSplitter{}
}

// Split breaks an utterance on newlines and on qualifying "y"
// conjunctions. Empty and near-empty segments are discarded.
func (s *RequestSplitter) Split(utterance string) []string {
	var segments []string

	for _, line := range strings.Split(utterance, "\n") {
		for _, segment := range splitOnConjunction(line) {
			segment = strings.TrimSpace(segment)
			if len(segment) < minSegmentLen {
				continue
			}
			segments = append(segments, segment)
		}
	}

	return segments
}

// splitOnConjunction splits on " y " when the next token is a digit or a
// word of length >= 4. Shorter right-hand words are assumed to belong to
// a compound product name ("pan y sal"), so those stay intact. Go's
// regexp has no lookahead, so qualifying positions are located manually.
// Best-effort segmentation: it will occasionally under- or over-split.
func splitOnConjunction(line string) []string {
	var segments []string
	rest := line

	for {
		pt := findSplitPoint(rest)
		if pt == nil {
			segments = append(segments, rest)
			return segments
		}
		segments = append(segments, rest[:pt.start])
		rest = rest[pt.end:]
	}
}

type splitPoint struct {
	start, end int
}

var yTokenRe = regexp.MustCompile(`\s+y\s+`)

func findSplitPoint(s string) *splitPoint {
	for _, loc := range yTokenRe.FindAllStringIndex(s, -1) {
		right := s[loc[1]:]
		if qualifiesAsSplit(right) {
			return &splitPoint{start: loc[0], end: loc[1]}
		}
	}
	return nil
}

// qualifiesAsSplit reports whether the text after a conjunction starts
// with a digit or a word of at least four letters.
func qualifiesAsSplit(right string) bool {
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return false
	}
	first := fields[0]
	if first[0] >= '0' && first[0] <= '9' {
		return true
	}
	return len([]rune(first)) >= 4
}
