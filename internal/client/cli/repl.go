package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to. The real
// App satisfies it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	OAuth(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Forgot(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Open(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	SetMode(ctx context.Context, args []string) error
	Set(ctx context.Context, args []string) error
	Params(ctx context.Context, args []string) error
	Reset(ctx context.Context, args []string) error
	Apply(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

const (
	helpAnonymous     = "Available commands: login, oauth <token>, forgot, upload <path>, list, help, exit"
	helpAuthenticated = "Available commands: upload <path>, (l)ist, open <id>, show, mode <both|cutter|stamp>, " +
		"set <param> <value>, params, reset, apply, download [id], rename <id> <name>, delete <id>, logout, help, exit"
)

// runREPL reads one line at a time from reader, takes the first token as the
// command and dispatches the remaining tokens to the handler on a. Handler
// errors are printed and the loop goes on. It exits on EOF or on "exit" /
// "quit".
//
// The prompt shows the session (from statusFn): the subject or "anonymous",
// followed by "*" while a generation is running.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cookie (%s) > ", statusFn()))

		line, readErr := reader.ReadString('\n')
		if readErr != nil && (readErr != io.EOF || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var handler func(context.Context, []string) error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpAuthenticated)
			} else {
				printlnFn(helpAnonymous)
			}
			continue
		case "login":
			handler = a.Login
		case "oauth":
			handler = a.OAuth
		case "logout":
			handler = a.Logout
		case "forgot":
			handler = a.Forgot
		case "upload":
			handler = a.Upload
		case "l", "list":
			handler = a.List
		case "open":
			handler = a.Open
		case "show":
			handler = a.Show
		case "mode":
			handler = a.SetMode
		case "set":
			handler = a.Set
		case "params":
			handler = a.Params
		case "reset":
			handler = a.Reset
		case "apply":
			handler = a.Apply
		case "download":
			handler = a.Download
		case "rename":
			handler = a.Rename
		case "delete":
			handler = a.Delete
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err := handler(ctx, args); err != nil {
			printlnFn("Error:", describe(err))
		}
		if readErr == io.EOF {
			return
		}
	}
}
