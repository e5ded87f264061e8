// Package query builds and parses NetMD command frames described by a compact
// template language. A template is a sequence of hex byte pairs (spaces are
// ignored) and %-escaped placeholders:
//
//	%b %w %d %q   1, 2, 4 and 8 byte big-endian integers (%<w is little-endian)
//	%B %W         1 and 2 byte BCD numbers
//	%x            blob with a 2 byte length prefix
//	%s            like %x with a trailing NUL counted in the length
//	%z            blob with a 1 byte length prefix
//	%*            raw blob without length (Scan: the rest of the reply)
//	%?            Scan only: skip one byte
//	%#            Scan only: the rest of the reply
package query

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

var intWidths = map[byte]int{
	'b': 1,
	'w': 2,
	'd': 4,
	'q': 8,
	'B': 1,
	'W': 2,
}

type token struct {
	verb   byte // 0 for a literal byte
	value  byte
	little bool
}

func parse(template string) ([]token, error) {
	tokens := make([]token, 0, len(template)/2)
	var half []byte
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == ' ':
			continue
		case c == '%':
			if half != nil {
				return nil, &FormatError{Template: template, Reason: fmt.Sprintf("placeholder splits hex pair at %d", i)}
			}
			if i+1 >= len(template) {
				return nil, &FormatError{Template: template, Reason: "dangling %"}
			}
			i++
			tok := token{verb: template[i]}
			if tok.verb == '<' {
				if i+1 >= len(template) {
					return nil, &FormatError{Template: template, Reason: "dangling %<"}
				}
				i++
				tok = token{verb: template[i], little: true}
				switch tok.verb {
				case 'b', 'w', 'd', 'q':
				default:
					return nil, &FormatError{Template: template, Verb: "<" + string(tok.verb), Reason: "endianness override on non-integer"}
				}
			}
			switch tok.verb {
			case 'b', 'w', 'd', 'q', 'B', 'W', 'x', 's', 'z', '*', '?', '#':
			default:
				return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: "unrecognized format char"}
			}
			tokens = append(tokens, tok)
		default:
			if !isHex(c) {
				return nil, &FormatError{Template: template, Reason: fmt.Sprintf("invalid character %q at %d", c, i)}
			}
			if half == nil {
				half = []byte{c}
				continue
			}
			tokens = append(tokens, token{value: unhex(half[0])<<4 | unhex(c)})
			half = nil
		}
	}
	if half != nil {
		return nil, &FormatError{Template: template, Reason: "odd number of hex digits"}
	}
	return tokens, nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func toUint64(arg interface{}) (uint64, bool) {
	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() < 0 {
			return 0, false
		}
		return uint64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true
	case reflect.Bool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func appendInt(out []byte, value uint64, width int, little bool) []byte {
	var buf [8]byte
	if little {
		binary.LittleEndian.PutUint64(buf[:], value)
		return append(out, buf[:width]...)
	}
	binary.BigEndian.PutUint64(buf[:], value)
	return append(out, buf[8-width:]...)
}

func readInt(data []byte, width int, little bool) uint64 {
	var value uint64
	for i := 0; i < width; i++ {
		if little {
			value |= uint64(data[i]) << (8 * i)
		} else {
			value = value<<8 | uint64(data[i])
		}
	}
	return value
}

// Format builds a query from template, consuming args left to right.
// Integer placeholders accept any signed or unsigned integer kind that fits
// the placeholder width; blob placeholders accept []byte only.
func Format(template string, args ...interface{}) ([]byte, error) {
	tokens, err := parse(template)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(tokens)+8)
	next := 0
	for _, tok := range tokens {
		if tok.verb == 0 {
			out = append(out, tok.value)
			continue
		}
		if tok.verb == '?' || tok.verb == '#' {
			return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: "placeholder is only valid when scanning"}
		}
		if next >= len(args) {
			return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: "missing argument"}
		}
		arg := args[next]
		next++

		switch tok.verb {
		case 'b', 'w', 'd', 'q':
			width := intWidths[tok.verb]
			value, ok := toUint64(arg)
			if !ok {
				return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: fmt.Sprintf("expected non-negative integer, got %T(%v)", arg, arg)}
			}
			if width < 8 && value>>(8*width) != 0 {
				return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: fmt.Sprintf("value %d overflows %d bytes", value, width)}
			}
			out = appendInt(out, value, width, tok.little)
		case 'B', 'W':
			width := intWidths[tok.verb]
			value, ok := toUint64(arg)
			if !ok || value > 1<<31 {
				return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: fmt.Sprintf("expected BCD encodable integer, got %T(%v)", arg, arg)}
			}
			bcd, err := IntToBCD(int(value), width)
			if err != nil {
				return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: err.Error()}
			}
			out = appendInt(out, uint64(bcd), width, false)
		default:
			blob, ok := arg.([]byte)
			if !ok {
				return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: fmt.Sprintf("expected []byte, got %T", arg)}
			}
			switch tok.verb {
			case 'x', 's':
				length := len(blob)
				if tok.verb == 's' {
					length++
				}
				if length > 0xffff {
					return nil, &FormatError{Template: template, Verb: string(tok.verb), Reason: fmt.Sprintf("blob of %d bytes too long", length)}
				}
				out = appendInt(out, uint64(length), 2, false)
				out = append(out, blob...)
				if tok.verb == 's' {
					out = append(out, 0)
				}
			case 'z':
				if len(blob) > 0xff {
					return nil, &FormatError{Template: template, Verb: "z", Reason: fmt.Sprintf("blob of %d bytes too long", len(blob))}
				}
				out = append(out, byte(len(blob)))
				out = append(out, blob...)
			case '*':
				out = append(out, blob...)
			}
		}
	}
	if next != len(args) {
		return nil, &FormatError{Template: template, Reason: fmt.Sprintf("%d unused arguments", len(args)-next)}
	}
	return out, nil
}

// MustFormat is Format for fixed templates without arguments. It panics on error.
func MustFormat(template string, args ...interface{}) []byte {
	out, err := Format(template, args...)
	if err != nil {
		panic(err)
	}
	return out
}

// Scan parses a reply against template. Every byte of data must be consumed.
func Scan(data []byte, template string) (Values, error) {
	tokens, err := parse(template)
	if err != nil {
		return nil, err
	}

	var values Values
	pos := 0
	need := func(n int) error {
		if len(data)-pos < n {
			return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortReply, n, pos, len(data)-pos)
		}
		return nil
	}

	for _, tok := range tokens {
		if tok.verb == 0 {
			if pos >= len(data) {
				return nil, &MismatchError{Offset: pos, Expected: tok.value, Actual: -1}
			}
			if data[pos] != tok.value {
				return nil, &MismatchError{Offset: pos, Expected: tok.value, Actual: int(data[pos])}
			}
			pos++
			continue
		}

		switch tok.verb {
		case '?':
			if err := need(1); err != nil {
				return nil, err
			}
			pos++
		case 'b', 'w', 'd', 'q':
			width := intWidths[tok.verb]
			if err := need(width); err != nil {
				return nil, err
			}
			values = append(values, readInt(data[pos:], width, tok.little))
			pos += width
		case 'B', 'W':
			width := intWidths[tok.verb]
			if err := need(width); err != nil {
				return nil, err
			}
			values = append(values, uint64(BCDToInt(uint32(readInt(data[pos:], width, false)))))
			pos += width
		case 'x', 's', 'z':
			prefix := 2
			if tok.verb == 'z' {
				prefix = 1
			}
			if err := need(prefix); err != nil {
				return nil, err
			}
			length := int(readInt(data[pos:], prefix, false))
			pos += prefix
			if err := need(length); err != nil {
				return nil, err
			}
			blob := append([]byte(nil), data[pos:pos+length]...)
			pos += length
			if tok.verb == 's' && len(blob) > 0 && blob[len(blob)-1] == 0 {
				blob = blob[:len(blob)-1]
			}
			values = append(values, blob)
		case '*', '#':
			values = append(values, append([]byte{}, data[pos:]...))
			pos = len(data)
		}
	}

	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d bytes remaining to parse", ErrTrailingBytes, len(data)-pos)
	}
	return values, nil
}

// Values holds the decoded placeholders of a Scan in template order.
// Integer placeholders decode to uint64 and blobs to []byte.
type Values []interface{}

// Uint returns the i-th value as an unsigned integer, or 0 if it is a blob.
func (v Values) Uint(i int) uint64 {
	n, _ := v[i].(uint64)
	return n
}

// Int returns the i-th value as an int.
func (v Values) Int(i int) int {
	return int(v.Uint(i))
}

// Bytes returns the i-th value as a blob, or nil if it is an integer.
func (v Values) Bytes(i int) []byte {
	b, _ := v[i].([]byte)
	return b
}
