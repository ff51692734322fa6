package narration

import (
	"strings"
	"unicode"

	"github.com/yungbote/learn2go-backend/internal/domain/learning"
)

// MaxSegmentRunes keeps each utterance short enough for browser synthesizers that cut off
// long input.
const MaxSegmentRunes = 200

type Segment struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
}

const (
	SegmentTitle       = "title"
	SegmentDescription = "description"
	SegmentBody        = "body"
)

// Segments returns the lesson's title, description and body as ordered utterances. Body
// paragraphs are split on sentence boundaries and packed up to MaxSegmentRunes.
func Segments(l *learning.Lesson) []Segment {
	if l == nil {
		return nil
	}
	var out []Segment
	add := func(kind, text string) {
		text = collapseSpace(text)
		if text == "" {
			return
		}
		out = append(out, Segment{Index: len(out), Kind: kind, Text: text})
	}
	add(SegmentTitle, l.Title)
	add(SegmentDescription, l.Description)
	for _, para := range strings.Split(l.Body, "\n\n") {
		for _, chunk := range pack(sentences(collapseSpace(para)), MaxSegmentRunes) {
			add(SegmentBody, chunk)
		}
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sentences splits after '.', '!', '?' (and their full-width forms) followed by a space or the end.
func sentences(s string) []string {
	var out []string
	rs := []rune(s)
	start := 0
	for i, r := range rs {
		if !isTerminal(r) {
			continue
		}
		if i+1 < len(rs) && !unicode.IsSpace(rs[i+1]) {
			continue
		}
		if part := strings.TrimSpace(string(rs[start : i+1])); part != "" {
			out = append(out, part)
		}
		start = i + 1
	}
	if part := strings.TrimSpace(string(rs[start:])); part != "" {
		out = append(out, part)
	}
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// pack joins sentences into chunks of at most max runes. A single longer sentence is split on
// word boundaries.
func pack(parts []string, max int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, p := range parts {
		for _, piece := range splitLong(p, max) {
			n := len([]rune(piece))
			if curLen > 0 && curLen+1+n > max {
				flush()
			}
			if curLen > 0 {
				cur.WriteByte(' ')
				curLen++
			}
			cur.WriteString(piece)
			curLen += n
		}
	}
	flush()
	return out
}

func splitLong(s string, max int) []string {
	if len([]rune(s)) <= max {
		return []string{s}
	}
	var out []string
	var line []string
	lineLen := 0
	for _, w := range strings.Fields(s) {
		wr := []rune(w)
		for len(wr) > max {
			if lineLen > 0 {
				out = append(out, strings.Join(line, " "))
				line, lineLen = nil, 0
			}
			out = append(out, string(wr[:max]))
			wr = wr[max:]
		}
		w = string(wr)
		n := len(wr)
		if n == 0 {
			continue
		}
		if lineLen > 0 && lineLen+1+n > max {
			out = append(out, strings.Join(line, " "))
			line, lineLen = nil, 0
		}
		if lineLen > 0 {
			lineLen++
		}
		line = append(line, w)
		lineLen += n
	}
	if lineLen > 0 {
		out = append(out, strings.Join(line, " "))
	}
	return out
}
