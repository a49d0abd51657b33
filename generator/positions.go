package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sourcemeta-go/registryindex/metapack"
)

// Position is one JSON Pointer's source location within the original file,
// 1-indexed as editors display them.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// PointerPositions writes the map from every JSON Pointer in the original
// source file to its line/column, used by the explorer to deep-link into a
// raw schema. Grounded on GENERATE_POINTER_POSITIONS's
// `core::PointerPositionTracker`; no JSON library in the corpus exposes
// token source offsets (encoding/json's Decoder.Token discards them), so
// this is a small hand-written scanner.
func PointerPositions(destination string, dependencies []string, _ func(string), _ any) error {
	data, err := os.ReadFile(dependencies[0])
	if err != nil {
		return err
	}

	positions := map[string]Position{}
	sc := &scanner{data: data, line: 1, col: 1}
	if err := sc.parseValue("", positions); err != nil {
		return fmt.Errorf("generator: tracking pointer positions in %s: %w", dependencies[0], err)
	}

	_, err = metapack.WriteJSON(destination, positions, metapack.WriteOptions{
		MIME:     "application/json",
		Encoding: metapack.EncodingGzip,
	})
	return err
}

// scanner is a minimal hand-rolled JSON scanner that records, for every
// value it encounters, the (line, column) of its opening character, keyed
// by the JSON Pointer leading to it. It does not itself validate JSON
// strictly — the document has already been parsed successfully upstream
// by the time any generator runs — only enough structure is understood to
// track nesting and string boundaries.
type scanner struct {
	data []byte
	pos  int
	line int
	col  int
}

func (s *scanner) eof() bool { return s.pos >= len(s.data) }

func (s *scanner) peek() byte { return s.data[s.pos] }

func (s *scanner) advance() byte {
	c := s.data[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *scanner) skipWS() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r':
			s.advance()
		default:
			return
		}
	}
}

func (s *scanner) parseValue(pointer string, out map[string]Position) error {
	s.skipWS()
	if s.eof() {
		return fmt.Errorf("unexpected end of input at %s", pointer)
	}
	out[pointer] = Position{Line: s.line, Column: s.col}
	switch s.peek() {
	case '{':
		return s.parseObject(pointer, out)
	case '[':
		return s.parseArray(pointer, out)
	case '"':
		_, err := s.readString()
		return err
	default:
		return s.skipLiteral()
	}
}

func (s *scanner) parseObject(pointer string, out map[string]Position) error {
	s.advance() // '{'
	s.skipWS()
	if !s.eof() && s.peek() == '}' {
		s.advance()
		return nil
	}
	for {
		s.skipWS()
		if s.eof() || s.peek() != '"' {
			return fmt.Errorf("expected object key at %s", pointer)
		}
		key, err := s.readString()
		if err != nil {
			return err
		}
		s.skipWS()
		if s.eof() || s.peek() != ':' {
			return fmt.Errorf("expected ':' after key %q", key)
		}
		s.advance()

		if err := s.parseValue(pointer+"/"+escapeSegment(key), out); err != nil {
			return err
		}

		s.skipWS()
		if s.eof() {
			return fmt.Errorf("unterminated object at %s", pointer)
		}
		switch s.advance() {
		case ',':
			continue
		case '}':
			return nil
		default:
			return fmt.Errorf("unexpected character in object at %s", pointer)
		}
	}
}

func (s *scanner) parseArray(pointer string, out map[string]Position) error {
	s.advance() // '['
	s.skipWS()
	if !s.eof() && s.peek() == ']' {
		s.advance()
		return nil
	}
	index := 0
	for {
		if err := s.parseValue(pointer+"/"+strconv.Itoa(index), out); err != nil {
			return err
		}
		index++

		s.skipWS()
		if s.eof() {
			return fmt.Errorf("unterminated array at %s", pointer)
		}
		switch s.advance() {
		case ',':
			continue
		case ']':
			return nil
		default:
			return fmt.Errorf("unexpected character in array at %s", pointer)
		}
	}
}

// readString consumes a JSON string literal starting at the current
// position and returns its decoded value, delegating escape handling to
// encoding/json rather than reimplementing \uXXXX decoding.
func (s *scanner) readString() (string, error) {
	start := s.pos
	s.advance() // opening quote
	for {
		if s.eof() {
			return "", fmt.Errorf("unterminated string")
		}
		c := s.advance()
		if c == '\\' {
			if s.eof() {
				return "", fmt.Errorf("unterminated escape sequence")
			}
			s.advance()
			continue
		}
		if c == '"' {
			break
		}
	}
	var decoded string
	if err := json.Unmarshal(s.data[start:s.pos], &decoded); err != nil {
		return "", err
	}
	return decoded, nil
}

// skipLiteral consumes a bare number/true/false/null token, stopping at the
// next structural character or whitespace.
func (s *scanner) skipLiteral() error {
	start := s.pos
	for !s.eof() {
		switch s.peek() {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			if s.pos == start {
				return fmt.Errorf("unexpected character %q", s.peek())
			}
			return nil
		default:
			s.advance()
		}
	}
	if s.pos == start {
		return fmt.Errorf("unexpected end of input")
	}
	return nil
}
