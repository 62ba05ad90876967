package command

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/lojhan/hashtable/internal/resp"
	"github.com/lojhan/hashtable/internal/store"
)

const Version = "1.0.0"

// ServerStats exposes the connection counters reported by INFO.
type ServerStats interface {
	ConnectedClients() int64
	TotalConnections() int64
	CommandsProcessed() int64
}

func wrongArity(name string) resp.Value {
	return resp.ErrorValue("ERR wrong number of arguments for '" + name + "' command")
}

// PingCommand replies PONG, or a copy of its single argument.
func PingCommand(args []resp.Value) resp.Value {
	switch len(args) {
	case 0:
		return resp.PongValue()
	case 1:
		return echo(args[0])
	default:
		return wrongArity("ping")
	}
}

func EchoCommand(args []resp.Value) resp.Value {
	if len(args) != 1 {
		return wrongArity("echo")
	}
	return echo(args[0])
}

func echo(msg resp.Value) resp.Value {
	if msg.Type != resp.BulkString || msg.Null {
		return resp.ErrorValue("ERR invalid argument type")
	}
	return resp.BulkStringValue(msg.Str)
}

// CommandCommand answers COMMAND from the registered command names. Bare
// COMMAND and COMMAND LIST return the names, COMMAND COUNT their number.
func CommandCommand(names func() []string) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		sub := "LIST"
		if len(args) > 0 {
			if args[0].Type != resp.BulkString {
				return resp.ErrorValue("ERR invalid argument type")
			}
			sub = strings.ToUpper(args[0].Str)
		}

		registered := names()
		switch sub {
		case "COUNT":
			if len(args) > 1 {
				return wrongArity("command|count")
			}
			return resp.IntegerValue(int64(len(registered)))
		case "LIST":
			if len(args) > 1 {
				return wrongArity("command|list")
			}
			reply := make([]resp.Value, len(registered))
			for i, name := range registered {
				reply[i] = resp.BulkStringValue(strings.ToLower(name))
			}
			return resp.ArrayValue(reply...)
		default:
			return resp.ErrorValue(fmt.Sprintf("ERR unknown subcommand '%s'", args[0].Str))
		}
	}
}

func InfoCommand(s *store.Store, stats ServerStats) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		section := "all"
		if len(args) > 0 {
			if args[0].Type != resp.BulkString {
				return resp.ErrorValue("ERR invalid argument type")
			}
			section = strings.ToLower(args[0].Str)
		}

		var b strings.Builder
		switch section {
		case "server":
			writeServerInfo(&b)
		case "stats", "clients":
			writeStatsInfo(&b, stats)
		case "keyspace":
			writeKeyspaceInfo(&b, s)
		case "all", "default", "everything":
			writeServerInfo(&b)
			b.WriteString("\r\n")
			writeStatsInfo(&b, stats)
			b.WriteString("\r\n")
			writeKeyspaceInfo(&b, s)
		default:
			return resp.BulkStringValue("")
		}

		return resp.BulkStringValue(b.String())
	}
}

func writeServerInfo(b *strings.Builder) {
	b.WriteString("# Server\r\n")
	fmt.Fprintf(b, "hashtable_version:%s\r\n", Version)
	fmt.Fprintf(b, "go_version:%s\r\n", runtime.Version())
	fmt.Fprintf(b, "os:%s\r\n", runtime.GOOS)
	fmt.Fprintf(b, "arch:%s\r\n", runtime.GOARCH)
}

func writeStatsInfo(b *strings.Builder, stats ServerStats) {
	b.WriteString("# Stats\r\n")
	if stats == nil {
		return
	}
	fmt.Fprintf(b, "connected_clients:%d\r\n", stats.ConnectedClients())
	fmt.Fprintf(b, "total_connections_received:%d\r\n", stats.TotalConnections())
	fmt.Fprintf(b, "total_commands_processed:%d\r\n", stats.CommandsProcessed())
}

func writeKeyspaceInfo(b *strings.Builder, s *store.Store) {
	st := s.Stats()
	b.WriteString("# Keyspace\r\n")
	fmt.Fprintf(b, "keys:%d\r\n", st.Keys)
	fmt.Fprintf(b, "buckets:%d\r\n", st.Buckets)
	fmt.Fprintf(b, "load_factor:%.4f\r\n", st.LoadFactor)
}
