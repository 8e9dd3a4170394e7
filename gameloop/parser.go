package gameloop

import (
	"strconv"
	"strings"
)

// Command is one actuation directive: a key pressed count times.
type Command struct {
	Key   Key
	Count int
}

func (c Command) String() string {
	if c.Count > 1 {
		return c.Key.String() + " x" + strconv.Itoa(c.Count)
	}
	return c.Key.String()
}

// MemoryOpKind discriminates memory directives.
type MemoryOpKind int

const (
	OpAddNote MemoryOpKind = iota
	OpClearNote
	OpClearAll
)

// MemoryOp is one parsed memory directive, in text order.
type MemoryOp struct {
	Kind       MemoryOpKind
	NoteID     int
	Text       string
	Prediction bool // the note claims an outcome for this turn's own commands
}

// Parsed is the total result of parsing one response. Commands is never
// empty: when nothing recognizable is found the default safe action is
// substituted and Fallback is set.
type Parsed struct {
	Commands    []Command
	MemoryOps   []MemoryOp
	SearchQuery string
	Fallback    bool
}

// Action-designator prefixes. A line starting with one of these (after
// trimming) restricts command scanning to that line.
var designators = []string{"buttons:", "inputs:"}

// Outcome words used by the prediction heuristic. Approximate by
// design: a note claiming a result for a button pressed this very turn
// is describing something not yet observed.
var predictionOutcomeWords = []string{
	"work", "fail", "success", "moved", "blocked",
	"won", "beat", "didn't", "did not", "progress",
}

// Parse translates free response text into commands and memory
// directives. It is pure, deterministic, and never fails.
func Parse(text string, maxRepeat int) Parsed {
	if maxRepeat < 1 {
		maxRepeat = 1
	}
	var p Parsed
	stripped := extractDirectives(text, &p)

	// Primary grammar: a designator line if present, else the whole text
	// with directives removed so note contents cannot leak button tokens.
	if line, ok := designatorLine(stripped); ok {
		p.Commands = scanCommands(line, maxRepeat)
	}
	if len(p.Commands) == 0 {
		p.Commands = scanCommands(stripped, maxRepeat)
	}
	if len(p.Commands) == 0 {
		if cmd, ok := firstButtonSubstring(stripped); ok {
			p.Commands = []Command{cmd}
		}
	}
	if len(p.Commands) == 0 {
		p.Commands = []Command{{Key: DefaultKey, Count: 1}}
		p.Fallback = true
	}

	flagPredictions(&p)
	return p
}

// designatorLine returns the remainder of the first line beginning with
// a recognized action designator.
func designatorLine(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.ToLower(strings.TrimSpace(line))
		for _, d := range designators {
			if strings.HasPrefix(trimmed, d) {
				return trimmed[len(d):], true
			}
		}
	}
	return "", false
}

// scanCommands tokenizes on the fixed button vocabulary. Each button
// word may be followed by an integer repeat count; text order is
// actuation order.
func scanCommands(text string, maxRepeat int) []Command {
	tokens := tokenize(text)
	var cmds []Command
	for i := 0; i < len(tokens); i++ {
		key, ok := KeyFromName(tokens[i])
		if !ok {
			continue
		}
		count := 1
		if i+1 < len(tokens) {
			if n, err := strconv.Atoi(tokens[i+1]); err == nil {
				count = clampRepeat(n, maxRepeat)
				i++
			}
		}
		cmds = append(cmds, Command{Key: key, Count: count})
	}
	return cmds
}

// tokenize splits text into lowercase alphanumeric words.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		return !isLower && !isDigit
	})
}

func clampRepeat(n, maxRepeat int) int {
	if n < 1 {
		return 1
	}
	if n > maxRepeat {
		return maxRepeat
	}
	return n
}

// Button names ordered longest-first so "start" wins over the "a" it
// contains when both begin at overlapping offsets.
var substringOrder = []string{"select", "start", "right", "down", "left", "up", "a", "b", "l", "r"}

// firstButtonSubstring returns the earliest button-name substring in
// the text, count 1.
func firstButtonSubstring(text string) (Command, bool) {
	lower := strings.ToLower(text)
	for i := 0; i < len(lower); i++ {
		for _, name := range substringOrder {
			if strings.HasPrefix(lower[i:], name) {
				key, _ := KeyFromName(name)
				return Command{Key: key, Count: 1}, true
			}
		}
	}
	return Command{}, false
}

// extractDirectives pulls bracketed memory and search directives out of
// the text, appending ops in text order, and returns the text with the
// directives removed.
func extractDirectives(text string, p *Parsed) string {
	var out strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '[' {
			out.WriteByte(text[i])
			i++
			continue
		}
		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			out.WriteString(text[i:])
			break
		}
		body := text[i+1 : i+end]
		if op, ok := parseDirective(body, p); ok {
			if op != nil {
				p.MemoryOps = append(p.MemoryOps, *op)
			}
		} else {
			out.WriteString(text[i : i+end+1])
		}
		i += end + 1
	}
	return out.String()
}

// parseDirective interprets one bracket body. The second return is
// false when the bracket is not a recognized directive; a nil op with
// ok=true means the directive was consumed without a memory op (search).
func parseDirective(body string, p *Parsed) (*MemoryOp, bool) {
	lower := strings.ToLower(strings.TrimSpace(body))
	switch {
	case strings.HasPrefix(lower, "note:"):
		content := strings.TrimSpace(body[strings.Index(strings.ToLower(body), "note:")+len("note:"):])
		return &MemoryOp{Kind: OpAddNote, Text: content}, true
	case strings.HasPrefix(lower, "clear note:"):
		idText := strings.TrimSpace(lower[len("clear note:"):])
		id, err := strconv.Atoi(idText)
		if err != nil {
			return nil, false
		}
		return &MemoryOp{Kind: OpClearNote, NoteID: id}, true
	case lower == "clear all notes":
		return &MemoryOp{Kind: OpClearAll}, true
	case strings.HasPrefix(lower, "search:"):
		// First occurrence only, to bound fan-out.
		if p.SearchQuery == "" {
			p.SearchQuery = strings.TrimSpace(body[strings.Index(strings.ToLower(body), "search:")+len("search:"):])
		}
		return nil, true
	}
	return nil, false
}

// flagPredictions marks note directives that claim an outcome for a
// button commanded this same turn. The result of the current turn is
// unknown until the next snapshot, so such notes are stored annotated
// rather than rejected.
func flagPredictions(p *Parsed) {
	for i := range p.MemoryOps {
		op := &p.MemoryOps[i]
		if op.Kind != OpAddNote {
			continue
		}
		lower := strings.ToLower(op.Text)
		mentionsButton := false
		for _, cmd := range p.Commands {
			if containsWord(lower, cmd.Key.String()) {
				mentionsButton = true
				break
			}
		}
		if !mentionsButton {
			continue
		}
		for _, w := range predictionOutcomeWords {
			if strings.Contains(lower, w) {
				op.Prediction = true
				break
			}
		}
	}
}

// containsWord reports whether word appears in text on token
// boundaries (so "a" does not match inside "start").
func containsWord(text, word string) bool {
	for _, tok := range tokenize(text) {
		if tok == word {
			return true
		}
	}
	return false
}
