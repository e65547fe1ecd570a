// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"bytes"
	"sort"
	"strings"
)

// flowMark records a Flow-only construct that was rewritten before parsing.
type flowMark uint8

const (
	// markSpread: `...T` inside an object type became `$: T`.
	markSpread flowMark = iota + 1
	// markVariancePlus and markVarianceMinus: a `+`/`-` sigil before a
	// property key was blanked.
	markVariancePlus
	markVarianceMinus
	// markMaybe: the `?` in front of a function type was blanked.
	markMaybe
	// markOpaque: `opaque` before `type` (and any `: Super` bound) was blanked.
	markOpaque
	// markUnnamedParam: `_: ` was inserted before a type-only function type
	// parameter such as `(string) => void`.
	markUnnamedParam
)

// flowInsert is text added to the lowered source in front of original
// offset pos.
type flowInsert struct {
	pos  int
	text string
	// at is the insert's offset in the lowered text.
	at int
}

// flowSource is a Flow file rewritten into something the TSX grammar
// accepts.
//
// Rewrites blank bytes in place, so offsets agree with the original except
// around inserts. Marks are keyed by original offset.
type flowSource struct {
	text    []byte
	marks   map[int]flowMark
	inserts []flowInsert
}

// orig maps an offset in the lowered text back to the original source.
// Offsets inside an insert map to the insert's position.
func (f *flowSource) orig(pos int) int {
	if f == nil || len(f.inserts) == 0 {
		return pos
	}
	idx := sort.Search(len(f.inserts), func(i int) bool {
		return f.inserts[i].at+len(f.inserts[i].text) > pos
	})
	shift := 0
	if idx > 0 {
		prev := f.inserts[idx-1]
		shift = prev.at + len(prev.text) - prev.pos
	}
	if idx < len(f.inserts) && pos >= f.inserts[idx].at {
		return f.inserts[idx].pos
	}
	return pos - shift
}

// mark returns the mark recorded at original offset pos.
func (f *flowSource) mark(pos int) flowMark {
	if f == nil {
		return 0
	}
	return f.marks[pos]
}

// lowerFlow rewrites the Flow syntax tree-sitter-typescript cannot parse.
//
// Description:
//
//	A single forward scan tracks just enough lexical state (strings,
//	templates, comments, regex literals, brace frames and JSX) to find
//	the Flow-only tokens and rewrite them:
//
//	  {...Base}            -> {$: Base}       (object type spread)
//	  {+a: T, -b: U}       -> { a: T,  b: U}  (variance sigils)
//	  ?() => void          ->  () => void     (maybe function type)
//	  opaque type ID: S =  ->        type ID = (opaque alias and bound)
//	  (string) => void     -> (_: string) => void
//	  function f(): boolean %checks {  (predicate blanked)
//	  <div>// text</div>   -> <div> / text</div>
//
//	A `...` is only rewritten in a brace opened where a type may start, and
//	only right after `{` or `,`. Call and array spreads stay untouched.
//	Object literal spreads in such braces (`= {...defaults}`) are rewritten
//	too, and the converter turns them back into SpreadElement.
//
// Inputs:
//
//	src - The original file.
//
// Outputs:
//
//	*flowSource - The lowered text and marks. text aliases src when nothing
//	              was rewritten.
func lowerFlow(src []byte) *flowSource {
	s := &flowScanner{
		src:     src,
		marks:   make(map[int]flowMark),
		inserts: make(map[int]string),
	}
	s.code(0, false)

	if len(s.edits) == 0 {
		return &flowSource{text: src, marks: s.marks}
	}

	out := s.out
	if out == nil {
		out = src
	}
	f := &flowSource{marks: s.marks}
	positions := make([]int, 0, len(s.inserts))
	for pos := range s.inserts {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	var b strings.Builder
	b.Grow(len(src) + 3*len(positions))
	prev := 0
	for _, pos := range positions {
		b.Write(out[prev:pos])
		f.inserts = append(f.inserts, flowInsert{pos: pos, text: s.inserts[pos], at: b.Len()})
		b.WriteString(s.inserts[pos])
		prev = pos
	}
	b.Write(out[prev:])
	f.text = []byte(b.String())
	return f
}

type editKind uint8

const (
	editByte editKind = iota
	editInsert
	editMark
)

// flowEdit is one undoable change, replayed backwards on JSX rollback.
type flowEdit struct {
	kind editKind
	pos  int
}

type flowScanner struct {
	src     []byte
	out     []byte
	marks   map[int]flowMark
	inserts map[int]string
	edits   []flowEdit

	// last is the class of the previous significant token: 'a' for a word
	// or number, 'A' for `=>`, '"' for a string, '`' for a template, 0 at
	// the start of input, and the character itself for punctuation.
	last byte
	word string
}

var (
	keywordTypes = setOf("any", "number", "boolean", "string", "symbol", "void", "null",
		"undefined", "never", "unknown", "object", "bigint", "typeof", "mixed", "empty")
	jsxWords    = setOf("return", "yield", "default", "case", "await", "else", "do")
	regexWords  = setOf("return", "typeof", "case", "do", "else", "in", "of", "delete", "void", "throw", "new", "yield", "await", "instanceof")
	spreadWords = setOf("return", "yield", "default", "case", "await")
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func isIdentPart(b byte) bool { return isIdentStart(b) || isDigit(b) }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

// oneOf reports whether b is a non-zero byte in set.
func oneOf(b byte, set string) bool {
	return b != 0 && strings.IndexByte(set, b) >= 0
}

func (s *flowScanner) at(i int) byte {
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func (s *flowScanner) hasPrefix(i int, prefix string) bool {
	return i >= 0 && i+len(prefix) <= len(s.src) && string(s.src[i:i+len(prefix)]) == prefix
}

func (s *flowScanner) skipSpace(i int) int {
	for i < len(s.src) && isSpace(s.src[i]) {
		i++
	}
	return i
}

func (s *flowScanner) set(i int, b byte) {
	if s.out == nil {
		s.out = append([]byte(nil), s.src...)
	}
	if s.out[i] == b {
		return
	}
	s.out[i] = b
	s.edits = append(s.edits, flowEdit{kind: editByte, pos: i})
}

// blank replaces [from, to) with spaces, keeping newlines so rows match.
func (s *flowScanner) blank(from, to int) {
	for i := from; i < to && i < len(s.src); i++ {
		if s.src[i] != '\n' {
			s.set(i, ' ')
		}
	}
}

func (s *flowScanner) mark(pos int, m flowMark) {
	s.marks[pos] = m
	s.edits = append(s.edits, flowEdit{kind: editMark, pos: pos})
}

func (s *flowScanner) insert(pos int, text string) {
	s.inserts[pos] = text
	s.edits = append(s.edits, flowEdit{kind: editInsert, pos: pos})
}

// rollback undoes every edit after the first n.
func (s *flowScanner) rollback(n int) {
	for i := len(s.edits) - 1; i >= n; i-- {
		e := s.edits[i]
		switch e.kind {
		case editByte:
			s.out[e.pos] = s.src[e.pos]
		case editInsert:
			delete(s.inserts, e.pos)
		case editMark:
			delete(s.marks, e.pos)
		}
	}
	s.edits = s.edits[:n]
}

func (s *flowScanner) afterWord(words map[string]struct{}) bool {
	if s.last != 'a' {
		return false
	}
	_, ok := words[s.word]
	return ok
}

func (s *flowScanner) spreadAllowed() bool {
	return oneOf(s.last, "=:(,[<|&?{") || s.afterWord(spreadWords)
}

func (s *flowScanner) jsxAllowed() bool {
	return s.last == 0 || oneOf(s.last, "(,=:?[{;!&|A") || s.afterWord(jsxWords)
}

func (s *flowScanner) regexAllowed() bool {
	return s.last == 0 || oneOf(s.last, "(,=:[!&|?{};A") || s.afterWord(regexWords)
}

// typeStart reports whether the previous token leaves the scanner where a
// type may begin.
func (s *flowScanner) typeStart() bool {
	return oneOf(s.last, "=:<,|&(")
}

// code scans JavaScript from i. With stop set it returns the offset after
// the `}` closing the enclosing frame, or -1 at end of input. Otherwise it
// runs to the end and returns len(src).
func (s *flowScanner) code(i int, stop bool) int {
	src := s.src
	n := len(src)
	var frames []bool

	for i < n {
		c := src[i]

		if isSpace(c) {
			i++
			continue
		}
		if c == '/' && s.at(i+1) == '/' {
			for i < n && src[i] != '\n' {
				i++
			}
			continue
		}
		if c == '/' && s.at(i+1) == '*' {
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				i = n
			} else {
				i += 2 + end + 2
			}
			continue
		}
		if c == '\'' || c == '"' {
			i = s.str(i)
			s.last, s.word = '"', ""
			continue
		}
		if c == '`' {
			i = s.template(i)
			if i < 0 {
				return -1
			}
			s.last, s.word = '`', ""
			continue
		}
		if c == '/' && s.regexAllowed() {
			if j := s.regex(i); j > 0 {
				i = j
				s.last, s.word = 'a', ""
				continue
			}
		}
		if isIdentPart(c) {
			j := i
			for j < n && isIdentPart(src[j]) {
				j++
			}
			word := string(src[i:j])
			if word == "opaque" {
				if k := s.opaque(i, j); k > 0 {
					i = k
					s.last, s.word = 'a', "type"
					continue
				}
			}
			s.last, s.word = 'a', word
			i = j
			continue
		}

		switch {
		case c == '{':
			ok := s.spreadAllowed()
			i++
			if s.at(i) == '|' && s.at(i+1) != '|' {
				i++
			}
			frames = append(frames, ok)
			s.last, s.word = '{', ""
			continue

		case c == '}':
			i++
			s.last, s.word = '}', ""
			if len(frames) > 0 {
				frames = frames[:len(frames)-1]
				continue
			}
			if stop {
				return i
			}
			continue

		case c == '.' && s.hasPrefix(i, "..."):
			if len(frames) > 0 && frames[len(frames)-1] && oneOf(s.last, "{,") {
				s.set(i, '$')
				s.set(i+1, ':')
				s.set(i+2, ' ')
				s.mark(i, markSpread)
				s.last, s.word = ':', ""
				i += 3
				continue
			}
			s.last, s.word = '.', ""
			i += 3
			continue

		case (c == '+' || c == '-') && oneOf(s.last, "{,;}") && s.variance(i):
			i++
			continue

		case c == '?' && s.typeStart() && s.maybeFunction(i):
			i++
			continue

		case c == '%' && s.hasPrefix(i, "%checks") && !isIdentPart(s.at(i+7)) && s.at(s.skipSpace(i+7)) == '{':
			s.blank(i, i+7)
			i += 7
			continue

		case c == '=' && s.at(i+1) == '>':
			s.last, s.word = 'A', ""
			i += 2
			continue

		case c == '<' && s.jsxAllowed() && (isIdentStart(s.at(i+1)) || s.at(i+1) == '>'):
			mark, last, word := len(s.edits), s.last, s.word
			if j := s.jsx(i); j > 0 {
				i = j
				s.last, s.word = 'a', ""
				continue
			}
			s.rollback(mark)
			s.last, s.word = last, word

		case c == '(' && s.typeStart():
			s.unnamedParams(i)
		}

		s.last, s.word = c, ""
		i++
	}
	if stop {
		return -1
	}
	return n
}

// str skips a quoted string. An unescaped newline ends it.
func (s *flowScanner) str(i int) int {
	quote := s.src[i]
	n := len(s.src)
	for i++; i < n; i++ {
		switch s.src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			return i
		}
	}
	return n
}

func (s *flowScanner) template(i int) int {
	n := len(s.src)
	for i++; i < n; {
		switch {
		case s.src[i] == '\\':
			i += 2
		case s.src[i] == '`':
			return i + 1
		case s.src[i] == '$' && s.at(i+1) == '{':
			if i = s.code(i+2, true); i < 0 {
				return -1
			}
		default:
			i++
		}
	}
	return -1
}

// regex skips a regular expression literal, or returns -1 if the line ends
// first.
func (s *flowScanner) regex(i int) int {
	n := len(s.src)
	class := false
	for i++; i < n; i++ {
		switch c := s.src[i]; {
		case c == '\n':
			return -1
		case c == '\\':
			i++
		case c == '[':
			class = true
		case c == ']':
			class = false
		case c == '/' && !class:
			i++
			for i < n && isIdentPart(s.src[i]) {
				i++
			}
			return i
		}
	}
	return -1
}

// variance blanks a `+`/`-` sigil in front of `key:` or `key?:`.
func (s *flowScanner) variance(i int) bool {
	j := i + 1
	if !isIdentStart(s.at(j)) {
		return false
	}
	for isIdentPart(s.at(j)) {
		j++
	}
	j = s.skipSpace(j)
	if s.at(j) == '?' {
		j = s.skipSpace(j + 1)
	}
	if s.at(j) != ':' {
		return false
	}
	m := markVariancePlus
	if s.src[i] == '-' {
		m = markVarianceMinus
	}
	s.blank(i, i+1)
	s.mark(i, m)
	return true
}

// maybeFunction blanks the `?` of `?(params) => R`. A parenthesized type
// followed by `=> {` is an arrow body, as in `(): ?(A | B) => {`, and is
// left alone.
func (s *flowScanner) maybeFunction(i int) bool {
	j := s.skipSpace(i + 1)
	if s.at(j) != '(' {
		return false
	}
	start := j
	depth := 0
	params := false
	for ; j < len(s.src); j++ {
		c := s.src[j]
		if c == '(' || c == '[' || c == '{' {
			depth++
		} else if c == ')' || c == ']' || c == '}' {
			depth--
			if depth == 0 {
				break
			}
		} else if depth == 1 && (c == ':' || c == ',') {
			params = true
		}
	}
	if j >= len(s.src) {
		return false
	}
	if strings.TrimSpace(string(s.src[start+1:j])) == "" {
		params = true
	}
	j = s.skipSpace(j + 1)
	if !s.hasPrefix(j, "=>") {
		return false
	}
	if !params && s.at(s.skipSpace(j+2)) == '{' {
		return false
	}
	s.blank(i, i+1)
	s.mark(i, markMaybe)
	return true
}

// opaque handles `opaque type Name<T>: Super = ...`. It returns the offset
// to resume at, or -1 if the word is not a declaration keyword.
func (s *flowScanner) opaque(i, j int) int {
	k := s.skipSpace(j)
	if k == j || !s.hasPrefix(k, "type") || isIdentPart(s.at(k+4)) {
		return -1
	}
	typeAt := k
	k = s.skipSpace(k + 4)
	if k == typeAt+4 || !isIdentStart(s.at(k)) {
		return -1
	}
	for isIdentPart(s.at(k)) {
		k++
	}
	k = s.skipSpace(k)
	if s.at(k) == '<' {
		k = s.skipSpace(s.skipAngles(k))
	}
	s.blank(i, j)
	s.mark(typeAt, markOpaque)
	if s.at(k) != ':' {
		return k
	}

	end, depth := k, 0
	for end < len(s.src) {
		c := s.src[end]
		if c == '=' && s.at(end+1) == '>' {
			end += 2
			continue
		}
		switch {
		case c == '<' || c == '(' || c == '{' || c == '[':
			depth++
		case c == '>' || c == ')' || c == '}' || c == ']':
			depth--
		case depth == 0 && (c == '=' || c == ';'):
			s.blank(k, end)
			return end
		}
		end++
	}
	s.blank(k, end)
	return end
}

func (s *flowScanner) skipAngles(i int) int {
	depth := 0
	for i < len(s.src) {
		c := s.src[i]
		if c == '=' && s.at(i+1) == '>' {
			i += 2
			continue
		}
		if c == '<' {
			depth++
		} else if c == '>' {
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}

// unnamedParams names the type-only parameters of a function type opening
// at i, so `(string, ?Node) => void` parses as `(_: string, _: ?Node) => void`.
func (s *flowScanner) unnamedParams(i int) {
	n := len(s.src)
	depth := 0
	starts := []int{i + 1}
	j := i
	for j < n {
		c := s.src[j]
		if c == '\'' || c == '"' {
			j = s.str(j)
			continue
		}
		if c == '=' && s.at(j+1) == '>' {
			j += 2
			continue
		}
		if c == '(' || c == '[' || c == '{' || c == '<' {
			depth++
		} else if c == ')' || c == ']' || c == '}' || c == '>' {
			depth--
			if depth == 0 {
				break
			}
		} else if depth == 1 && c == ',' {
			starts = append(starts, j+1)
		}
		j++
	}
	if j >= n || !s.hasPrefix(s.skipSpace(j+1), "=>") {
		return
	}
	for idx, start := range starts {
		end := j
		if idx+1 < len(starts) {
			end = starts[idx+1] - 1
		}
		if topLevelColon(s.src[start:end]) {
			continue
		}
		if a := s.skipSpace(start); a < end && s.typeOnlyStart(a) {
			s.insert(a, "_: ")
			s.mark(a, markUnnamedParam)
		}
	}
}

func topLevelColon(seg []byte) bool {
	depth := 0
	for _, c := range seg {
		switch c {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ':':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// typeOnlyStart reports whether a parameter starting at a can only be a
// type, never a binding name.
func (s *flowScanner) typeOnlyStart(a int) bool {
	c := s.at(a)
	switch {
	case c == '?' || c == '\'' || c == '"' || isDigit(c):
		return true
	case c == '-' && isDigit(s.at(a+1)):
		return true
	case !isIdentStart(c):
		return false
	}
	j := a
	for isIdentPart(s.at(j)) {
		j++
	}
	if _, ok := keywordTypes[string(s.src[a:j])]; ok {
		return true
	}
	next := s.at(s.skipSpace(j))
	return next == '<' || next == '['
}

func (s *flowScanner) jsxName(i int) (string, int) {
	j := i
	for j < len(s.src) && (isIdentPart(s.src[j]) || oneOf(s.src[j], ".:-")) {
		j++
	}
	return string(s.src[i:j]), j
}

// jsx scans an element opening at i and returns the offset after it, or -1
// if the text is not a well-formed element.
func (s *flowScanner) jsx(i int) int {
	n := len(s.src)
	j := s.skipSpace(i + 1)
	name := ""
	if s.at(j) != '>' {
		name, j = s.jsxName(j)
		if name == "" {
			return -1
		}
	}

attributes:
	for {
		j = s.skipSpace(j)
		if j >= n {
			return -1
		}
		c := s.src[j]
		switch {
		case c == '/' && s.at(j+1) == '>':
			return j + 2
		case c == '>':
			j++
			break attributes
		case c == '{':
			if j = s.code(j+1, true); j < 0 {
				return -1
			}
		case c == '"' || c == '\'':
			end := bytes.IndexByte(s.src[j+1:], c)
			if end < 0 {
				return -1
			}
			j += end + 2
		case isIdentPart(c) || oneOf(c, "=-:."):
			j++
		default:
			return -1
		}
	}

	for j < n {
		c := s.src[j]
		switch {
		case c == '<':
			k := s.skipSpace(j + 1)
			if s.at(k) == '/' {
				closing, end := s.jsxName(s.skipSpace(k + 1))
				end = s.skipSpace(end)
				if closing != name || s.at(end) != '>' {
					return -1
				}
				return end + 1
			}
			if j = s.jsx(j); j < 0 {
				return -1
			}
		case c == '{':
			if j = s.code(j+1, true); j < 0 {
				return -1
			}
		case c == '/' && oneOf(s.at(j+1), "/*"):
			// Text, not a comment.
			s.blank(j, j+1)
			j++
		default:
			j++
		}
	}
	return -1
}
