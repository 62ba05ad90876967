package resp

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{
			name:     "simple string",
			input:    "+hello world\r\n",
			expected: Value{Type: SimpleString, Str: "hello world"},
		},
		{
			name:     "empty simple string",
			input:    "+\r\n",
			expected: Value{Type: SimpleString, Str: ""},
		},
		{
			name:     "error",
			input:    "-ERR unknown command\r\n",
			expected: Value{Type: Error, Str: "ERR unknown command"},
		},
		{
			name:     "negative integer",
			input:    ":-42\r\n",
			expected: Value{Type: Integer, Int: -42},
		},
		{
			name:     "bulk string",
			input:    "$5\r\nhello\r\n",
			expected: Value{Type: BulkString, Str: "hello"},
		},
		{
			name:     "empty bulk string",
			input:    "$0\r\n\r\n",
			expected: Value{Type: BulkString, Str: ""},
		},
		{
			name:     "null bulk string",
			input:    "$-1\r\n",
			expected: Value{Type: BulkString, Null: true},
		},
		{
			name:     "binary-safe bulk string",
			input:    "$11\r\nhel\x00lo\r\nwor\r\n",
			expected: Value{Type: BulkString, Str: "hel\x00lo\r\nwor"},
		},
		{
			name:     "empty array",
			input:    "*0\r\n",
			expected: Value{Type: Array, Array: []Value{}},
		},
		{
			name:     "null array",
			input:    "*-1\r\n",
			expected: Value{Type: Array, Null: true},
		},
		{
			name:  "nested array with mixed types",
			input: "*2\r\n*2\r\n$5\r\nhello\r\n+OK\r\n:42\r\n",
			expected: ArrayValue(
				ArrayValue(BulkStringValue("hello"), SimpleStringValue("OK")),
				IntegerValue(42),
			),
		},
		{
			name:     "inline command",
			input:    "SET  key value\r\n",
			expected: Command("SET", "key", "value"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if n != len(tt.input) {
				t.Errorf("Decode() consumed %d bytes, want %d", n, len(tt.input))
			}
			if !valuesEqual(got, tt.expected) {
				t.Errorf("Decode() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	frame := "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n"

	for i := 0; i < len(frame); i++ {
		_, _, err := Decode([]byte(frame[:i]))
		if !errors.Is(err, ErrIncomplete) {
			t.Fatalf("Decode(%q) error = %v, want ErrIncomplete", frame[:i], err)
		}
	}

	got, n, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(frame) {
		t.Errorf("Decode() consumed %d bytes, want %d", n, len(frame))
	}
	if !valuesEqual(got, Command("SET", "key", "value")) {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestDecodePipelined(t *testing.T) {
	input := []byte("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n")

	first, n, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !valuesEqual(first, Command("PING")) {
		t.Errorf("first frame = %+v", first)
	}

	second, m, err := Decode(input[n:])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !valuesEqual(second, Command("GET", "k")) {
		t.Errorf("second frame = %+v", second)
	}
	if n+m != len(input) {
		t.Errorf("consumed %d bytes, want %d", n+m, len(input))
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unknown type byte", "!oops\r\n", ErrInvalidType},
		{"missing CR", "+OK\n", ErrInvalidFormat},
		{"bad integer", ":12a\r\n", ErrInvalidFormat},
		{"negative bulk length", "$-5\r\n", ErrInvalidFormat},
		{"bulk without trailing CRLF", "$3\r\nabcde", ErrInvalidFormat},
		{"bad array length", "*x\r\n", ErrInvalidFormat},
		{"bad nested element", "*1\r\n:zz\r\n", ErrInvalidFormat},
		{"arrays nested too deeply", strings.Repeat("*1\r\n", MaxNestingDepth+1) + ":1\r\n", ErrInvalidFormat},
		{"array longer than the limit", "*1048577\r\n", ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeNestingLimit(t *testing.T) {
	input := strings.Repeat("*1\r\n", MaxNestingDepth) + ":7\r\n"
	got, n, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(input) {
		t.Errorf("Decode() consumed %d bytes, want %d", n, len(input))
	}
	for i := 0; i < MaxNestingDepth; i++ {
		if got.Type != Array || len(got.Array) != 1 {
			t.Fatalf("level %d: unexpected value %+v", i, got)
		}
		got = got.Array[0]
	}
	if got.Type != Integer || got.Int != 7 {
		t.Errorf("innermost value = %+v, want :7", got)
	}

	_, _, err = Decode(bytes.Repeat([]byte("*1\r\n"), 2_000_000))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Decode() error = %v, want ErrInvalidFormat", err)
	}
}

func TestDecodeLargeArrayHeaderAllocatesLittle(t *testing.T) {
	header := []byte("*1048576\r\n")

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	for i := 0; i < 10; i++ {
		if _, _, err := Decode(header); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("Decode() error = %v, want ErrIncomplete", err)
		}
	}
	runtime.ReadMemStats(&after)

	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 4<<20 {
		t.Errorf("10 decodes of a bare header allocated %d bytes", allocated)
	}
}

func TestDecodeLargeArray(t *testing.T) {
	const count = 5000
	var b strings.Builder
	b.WriteString("*5000\r\n")
	for i := 0; i < count; i++ {
		b.WriteString(":1\r\n")
	}

	got, n, err := Decode([]byte(b.String()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != b.Len() || len(got.Array) != count {
		t.Errorf("Decode() = %d elements in %d bytes, want %d in %d", len(got.Array), n, count, b.Len())
	}
}

func valuesEqual(a, b Value) bool {
	if a.Type != b.Type || a.Null != b.Null {
		return false
	}

	switch a.Type {
	case SimpleString, Error:
		return a.Str == b.Str
	case Integer:
		return a.Int == b.Int
	case BulkString:
		if a.Null || b.Null {
			return a.Null == b.Null
		}
		return a.Str == b.Str
	case Array:
		if a.Null || b.Null {
			return a.Null == b.Null
		}
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !valuesEqual(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}
