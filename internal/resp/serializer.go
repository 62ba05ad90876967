package resp

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// AppendTo appends the wire encoding of v to dst. Values with an unknown
// type are encoded as a protocol error reply.
func (v Value) AppendTo(dst []byte) []byte {
	switch v.Type {
	case SimpleString, Error:
		dst = append(dst, byte(v.Type))
		dst = append(dst, v.Str...)
		return append(dst, '\r', '\n')
	case Integer:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, '\r', '\n')
	case BulkString:
		if v.Null {
			return append(dst, "$-1\r\n"...)
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v.Str)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, v.Str...)
		return append(dst, '\r', '\n')
	case Array:
		if v.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, '\r', '\n')
		for _, elem := range v.Array {
			dst = elem.AppendTo(dst)
		}
		return dst
	default:
		return append(dst, "-ERR invalid reply type\r\n"...)
	}
}

// Encode appends v to a pooled buffer.
func (v Value) Encode(buf *bytebufferpool.ByteBuffer) {
	buf.B = v.AppendTo(buf.B)
}

// Marshal returns the wire encoding of v in a freshly allocated slice.
func Marshal(v Value) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	v.Encode(buf)
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out
}

func SimpleStringValue(str string) Value {
	return Value{Type: SimpleString, Str: str}
}

func ErrorValue(str string) Value {
	return Value{Type: Error, Str: str}
}

func IntegerValue(num int64) Value {
	return Value{Type: Integer, Int: num}
}

func BulkStringValue(str string) Value {
	return Value{Type: BulkString, Str: str}
}

func NullBulkStringValue() Value {
	return Value{Type: BulkString, Null: true}
}

func ArrayValue(values ...Value) Value {
	return Value{Type: Array, Array: values}
}

func NullArrayValue() Value {
	return Value{Type: Array, Null: true}
}

func OKValue() Value {
	return SimpleStringValue("OK")
}

func PongValue() Value {
	return SimpleStringValue("PONG")
}

// Command builds a request frame the way a client sends it.
func Command(name string, args ...string) Value {
	values := make([]Value, 0, len(args)+1)
	values = append(values, BulkStringValue(name))
	for _, arg := range args {
		values = append(values, BulkStringValue(arg))
	}
	return ArrayValue(values...)
}
