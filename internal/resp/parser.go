package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

type Type byte

const (
	SimpleString Type = '+'
	Error        Type = '-'
	Integer      Type = ':'
	BulkString   Type = '$'
	Array        Type = '*'
)

const (
	MaxBulkLength   = 512 << 20
	MaxArrayLength  = 1 << 20
	MaxInlineSize   = 64 << 10
	MaxNestingDepth = 32

	arrayPrealloc = 1024
)

var (
	ErrInvalidType   = errors.New("invalid RESP type")
	ErrInvalidFormat = errors.New("invalid RESP format")
	// ErrIncomplete means the buffer ends before the frame does. The caller
	// should wait for more input and decode again from the same offset.
	ErrIncomplete = errors.New("incomplete RESP frame")
)

type Value struct {
	Type  Type
	Str   string
	Int   int64
	Array []Value
	Null  bool
}

// Decode parses the frame at the start of buf and returns it together with
// the number of bytes it occupied. Lines that do not start with a RESP type
// byte are read as inline commands and returned as an array of bulk strings.
func Decode(buf []byte) (Value, int, error) {
	return decode(buf, 0)
}

func decode(buf []byte, depth int) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch Type(buf[0]) {
	case SimpleString, Error:
		line, n, err := readLine(buf[1:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: Type(buf[0]), Str: string(line)}, n + 1, nil
	case Integer:
		num, n, err := readInt(buf[1:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: Integer, Int: num}, n + 1, nil
	case BulkString:
		v, n, err := decodeBulkString(buf[1:])
		return v, n + 1, err
	case Array:
		v, n, err := decodeArray(buf[1:], depth)
		return v, n + 1, err
	}

	if isInlineStart(buf[0]) {
		return decodeInline(buf)
	}
	return Value{}, 0, fmt.Errorf("%w: %q", ErrInvalidType, buf[0])
}

func decodeBulkString(buf []byte) (Value, int, error) {
	length, n, err := readInt(buf)
	if err != nil {
		return Value{}, 0, err
	}

	if length == -1 {
		return Value{Type: BulkString, Null: true}, n, nil
	}
	if length < 0 || length > MaxBulkLength {
		return Value{}, 0, fmt.Errorf("%w: invalid bulk string length", ErrInvalidFormat)
	}

	end := n + int(length)
	if len(buf) < end+2 {
		return Value{}, 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Value{}, 0, fmt.Errorf("%w: missing CRLF after bulk string", ErrInvalidFormat)
	}

	return Value{Type: BulkString, Str: string(buf[n:end])}, end + 2, nil
}

// decodeArray grows the element slice as elements arrive, so a bare header
// announcing a huge count costs no more than arrayPrealloc slots.
func decodeArray(buf []byte, depth int) (Value, int, error) {
	if depth >= MaxNestingDepth {
		return Value{}, 0, fmt.Errorf("%w: arrays nested too deeply", ErrInvalidFormat)
	}

	count, n, err := readInt(buf)
	if err != nil {
		return Value{}, 0, err
	}

	if count == -1 {
		return Value{Type: Array, Null: true}, n, nil
	}
	if count < 0 || count > MaxArrayLength {
		return Value{}, 0, fmt.Errorf("%w: invalid array length", ErrInvalidFormat)
	}

	array := make([]Value, 0, min(int(count), arrayPrealloc))
	for range count {
		val, m, err := decode(buf[n:], depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		array = append(array, val)
		n += m
	}

	return Value{Type: Array, Array: array}, n, nil
}

func decodeInline(buf []byte) (Value, int, error) {
	line, n, err := readLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	fields := bytes.Fields(line)
	array := make([]Value, len(fields))
	for i, f := range fields {
		array[i] = Value{Type: BulkString, Str: string(f)}
	}
	return Value{Type: Array, Array: array}, n, nil
}

func isInlineStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// readLine returns the bytes before the first CRLF and the number of bytes
// consumed including the CRLF.
func readLine(buf []byte) ([]byte, int, error) {
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		if len(buf) > MaxInlineSize {
			return nil, 0, fmt.Errorf("%w: line too long", ErrInvalidFormat)
		}
		return nil, 0, ErrIncomplete
	}
	if i == 0 || buf[i-1] != '\r' {
		return nil, 0, fmt.Errorf("%w: missing CRLF", ErrInvalidFormat)
	}
	return buf[:i-1], i + 1, nil
}

func readInt(buf []byte) (int64, int, error) {
	line, n, err := readLine(buf)
	if err != nil {
		return 0, 0, err
	}
	num, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid integer", ErrInvalidFormat)
	}
	return num, n, nil
}
