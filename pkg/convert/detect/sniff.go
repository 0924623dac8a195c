package detect

import (
	"bytes"
	"strings"
)

// Candidate delimiters in tie-break priority order.
var delimiterCandidates = []byte{',', ';', '\t', '|'}

const (
	// sniffLines caps how many lines are sampled.
	sniffLines = 10
	// sniffThreshold is the minimum fraction of sampled lines whose
	// delimiter count must match the first line.
	sniffThreshold = 0.9
)

// SniffDelimiter samples the first lines of content and scores each
// candidate delimiter by occurrence consistency. It reports false when no
// candidate reaches the consistency threshold or fewer than two non-empty
// lines are available.
func SniffDelimiter(content []byte) (byte, bool) {
	lines := sampleLines(content)
	if len(lines) < 2 {
		return 0, false
	}

	best := byte(0)
	bestScore := 0.0
	for _, d := range delimiterCandidates {
		first := strings.Count(lines[0], string(d))
		if first == 0 {
			continue
		}
		matched := 0
		for _, line := range lines {
			if strings.Count(line, string(d)) == first {
				matched++
			}
		}
		// Ties keep the earlier candidate.
		if score := float64(matched) / float64(len(lines)); score > bestScore {
			best, bestScore = d, score
		}
	}
	if bestScore < sniffThreshold {
		return 0, false
	}
	return best, true
}

// GuessDelimiter is the relaxed variant for reading a file already known
// to be CSV: the strict sniff first, then any candidate present on the
// first line, then comma.
func GuessDelimiter(content []byte) byte {
	if d, ok := SniffDelimiter(content); ok {
		return d
	}
	lines := sampleLines(content)
	if len(lines) > 0 {
		for _, d := range delimiterCandidates {
			if strings.IndexByte(lines[0], d) >= 0 {
				return d
			}
		}
	}
	return ','
}

// hasDelimiterCandidate reports whether content looks like delimited text:
// multiple lines, no NUL bytes, and some candidate delimiter on the first
// line. Used to distinguish "ambiguous CSV" from "not tabular at all".
func hasDelimiterCandidate(content []byte) bool {
	if bytes.IndexByte(content, 0) >= 0 {
		return false
	}
	lines := sampleLines(content)
	if len(lines) < 2 {
		return false
	}
	for _, d := range delimiterCandidates {
		if strings.IndexByte(lines[0], d) >= 0 {
			return true
		}
	}
	return false
}

func sampleLines(content []byte) []string {
	var lines []string
	for _, raw := range bytes.Split(content, []byte{'\n'}) {
		line := strings.TrimRight(string(raw), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == sniffLines {
			break
		}
	}
	return lines
}
