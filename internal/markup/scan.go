package markup

import (
	"regexp"
	"strconv"
	"strings"
)

// TokenKind identifies the grammatical role of one line of plan markup.
type TokenKind int

const (
	// TokenOther is any line that matches no other production.
	TokenOther TokenKind = iota

	// TokenHeading is a markdown heading that is not a milestone, phase,
	// or task heading. Level carries the number of '#' characters.
	TokenHeading

	// TokenMilestoneHeading is a `## Milestone: <name> [<marker>]?` line.
	TokenMilestoneHeading

	// TokenPhaseHeading is a `### Phase <N>: <name> [<marker>]` line.
	TokenPhaseHeading

	// TokenTaskHeading is a `### Task <N>: <title> [<marker>(@owner)?]` line.
	TokenTaskHeading

	// TokenCriteriaLine is a `- [ ]` or `- [x]` checkbox line.
	TokenCriteriaLine
)

// Token is one scanned line of plan markup. Fields beyond Kind and Text are
// populated only for the kinds that carry them.
type Token struct {
	Kind  TokenKind
	Text  string
	Level int // heading level, for heading kinds

	Number int    // phase or task number
	Title  string // phase name, task title, or milestone name
	Status Status
	Owner  string
	Done   bool // criteria checkbox state
}

// Heading grammar. The marker group accepts exactly one of 'x', '>', or a
// single space, optionally followed by @owner on task headings. Lines that
// miss the shape (no colon, no number, no bracket) fall through to
// TokenHeading or TokenOther and are dropped by the extraction passes.
var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	milestoneRe = regexp.MustCompile(`^##\s+Milestone:\s+(.+?)(?:\s+\[([x> ])\])?\s*$`)
	phaseRe     = regexp.MustCompile(`^###\s+Phase\s+(\d+):\s+(.+?)(?:\s+\[([x> ])\])?\s*$`)
	taskRe      = regexp.MustCompile(`^###\s+Task\s+(\d+):\s+(.+?)\s+\[([x> ])(?:@([A-Za-z0-9_-]+))?\]\s*$`)
	criteriaRe  = regexp.MustCompile(`^\s*-\s+\[([ xX])\]\s+`)
)

// ScanLine classifies a single line of plan markup.
func ScanLine(line string) Token {
	if m := taskRe.FindStringSubmatch(line); m != nil {
		num, _ := strconv.Atoi(m[1])
		return Token{
			Kind:   TokenTaskHeading,
			Text:   line,
			Level:  3,
			Number: num,
			Title:  m[2],
			Status: statusFromMarker(m[3]),
			Owner:  m[4],
		}
	}
	if m := phaseRe.FindStringSubmatch(line); m != nil {
		num, _ := strconv.Atoi(m[1])
		return Token{
			Kind:   TokenPhaseHeading,
			Text:   line,
			Level:  3,
			Number: num,
			Title:  m[2],
			Status: statusFromMarker(m[3]),
		}
	}
	if m := milestoneRe.FindStringSubmatch(line); m != nil {
		return Token{
			Kind:   TokenMilestoneHeading,
			Text:   line,
			Level:  2,
			Title:  m[1],
			Status: statusFromMarker(m[2]),
		}
	}
	if m := criteriaRe.FindStringSubmatch(line); m != nil {
		return Token{
			Kind: TokenCriteriaLine,
			Text: line,
			Done: m[1] == "x" || m[1] == "X",
		}
	}
	if m := headingRe.FindStringSubmatch(line); m != nil {
		return Token{
			Kind:  TokenHeading,
			Text:  line,
			Level: len(m[1]),
		}
	}
	return Token{Kind: TokenOther, Text: line}
}

// Scan tokenizes an entire document, one token per line.
func Scan(doc string) []Token {
	lines := strings.Split(doc, "\n")
	tokens := make([]Token, len(lines))
	for i, line := range lines {
		tokens[i] = ScanLine(line)
	}
	return tokens
}
