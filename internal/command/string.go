package command

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/lojhan/hashtable/internal/resp"
	"github.com/lojhan/hashtable/internal/store"
)

func SetCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) < 2 {
			return wrongArity("set")
		}

		if args[0].Type != resp.BulkString || args[1].Type != resp.BulkString {
			return resp.ErrorValue("ERR invalid argument type")
		}

		key := args[0].Str
		value := args[1].Str

		nx := false
		xx := false
		for _, arg := range args[2:] {
			if arg.Type != resp.BulkString {
				return resp.ErrorValue("ERR invalid argument type")
			}

			switch strings.ToUpper(arg.Str) {
			case "NX":
				nx = true
			case "XX":
				xx = true
			default:
				return resp.ErrorValue("ERR syntax error")
			}
		}

		switch {
		case nx && xx:
			return resp.ErrorValue("ERR syntax error")
		case nx:
			if !s.SetNX(key, value) {
				return resp.NullBulkStringValue()
			}
		case xx:
			if !s.SetXX(key, value) {
				return resp.NullBulkStringValue()
			}
		default:
			s.Set(key, value)
		}

		return resp.OKValue()
	}
}

func SetNXCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 2 {
			return wrongArity("setnx")
		}

		if args[0].Type != resp.BulkString || args[1].Type != resp.BulkString {
			return resp.ErrorValue("ERR invalid argument type")
		}

		if s.SetNX(args[0].Str, args[1].Str) {
			return resp.IntegerValue(1)
		}
		return resp.IntegerValue(0)
	}
}

func GetCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArity("get")
		}

		if args[0].Type != resp.BulkString {
			return resp.ErrorValue("ERR invalid argument type")
		}

		value, exists := s.Get(args[0].Str)
		if !exists {
			return resp.NullBulkStringValue()
		}

		return resp.BulkStringValue(value)
	}
}

func DelCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		keys, errVal, ok := keyArgs("del", args)
		if !ok {
			return errVal
		}
		return resp.IntegerValue(int64(s.Delete(keys...)))
	}
}

func ExistsCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		keys, errVal, ok := keyArgs("exists", args)
		if !ok {
			return errVal
		}
		return resp.IntegerValue(int64(s.Exists(keys...)))
	}
}

func DBSizeCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArity("dbsize")
		}
		return resp.IntegerValue(int64(s.Len()))
	}
}

// KeysCommand matches keys against a Redis-style glob, in which '*' and '?'
// also match '/'.
func KeysCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArity("keys")
		}

		if args[0].Type != resp.BulkString {
			return resp.ErrorValue("ERR invalid argument type")
		}

		g, err := glob.Compile(redisGlob(args[0].Str))
		if err != nil {
			return resp.ErrorValue("ERR invalid pattern")
		}

		var matched []resp.Value
		for _, key := range s.Keys() {
			if g.Match(key) {
				matched = append(matched, resp.BulkStringValue(key))
			}
		}
		return resp.ArrayValue(matched...)
	}
}

// redisGlob rewrites a Redis pattern into glob syntax: braces are literal
// and a class negated with '^' uses '!'.
func redisGlob(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(pattern) {
				i++
				b.WriteByte(pattern[i])
			}
		case '{', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '[':
			b.WriteByte(c)
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				i++
				b.WriteByte('!')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func FlushDBCommand(s *store.Store) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		s.Flush()
		return resp.OKValue()
	}
}

func keyArgs(name string, args []resp.Value) ([]string, resp.Value, bool) {
	if len(args) == 0 {
		return nil, wrongArity(name), false
	}

	keys := make([]string, len(args))
	for i, arg := range args {
		if arg.Type != resp.BulkString {
			return nil, resp.ErrorValue("ERR invalid argument type"), false
		}
		keys[i] = arg.Str
	}
	return keys, resp.Value{}, true
}
