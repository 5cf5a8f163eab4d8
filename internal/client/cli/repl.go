package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Setup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Settings(ctx context.Context) error
	Avatar(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Signed out:
//	  - help           show available commands
//	  - register       create an account (short wizard)
//	  - setup          create an account with a full profile
//	  - login          sign in
//	  - exit | quit    leave the program
//
//	Signed in:
//	  - help           show available commands
//	  - whoami         show the signed-in user
//	  - settings       change theme, language and notifications
//	  - avatar         upload a new avatar image
//	  - logout         sign out
//	  - exit | quit    leave the program
//
// A failing command prints its message and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("tb (%s) > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, settings, avatar, logout, exit")
			} else {
				printlnFn("Available commands: register, setup, login, exit")
			}

		case "register":
			cmdErr = signedOutOnly(a, func() error { return a.Register(ctx) })

		case "setup":
			cmdErr = signedOutOnly(a, func() error { return a.Setup(ctx) })

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = signedInOnly(a, func() error { return a.Logout(ctx) })

		case "whoami":
			cmdErr = signedInOnly(a, func() error { return a.WhoAmI(ctx) })

		case "settings":
			cmdErr = signedInOnly(a, func() error { return a.Settings(ctx) })

		case "avatar":
			cmdErr = signedInOnly(a, func() error { return a.Avatar(ctx) })

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", errorText(cmdErr))
		}
		if err != nil {
			return
		}
	}
}

var (
	errSignedIn  = errors.New("you are already signed in; log out first")
	errSignedOut = errors.New("you are not signed in")
)

func signedOutOnly(a execIface, fn func() error) error {
	if a.isLoggedIn() {
		return errSignedIn
	}
	return fn()
}

func signedInOnly(a execIface, fn func() error) error {
	if !a.isLoggedIn() {
		return errSignedOut
	}
	return fn()
}

// errorText renders err for the terminal, listing field errors under the
// message when there are any.
func errorText(err error) string {
	var ae *client.AuthError
	if !errors.As(err, &ae) || len(ae.Fields) == 0 {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(ae.Message)
	for _, f := range slices.Sorted(maps.Keys(ae.Fields)) {
		fmt.Fprintf(&b, "\n  %s: %s", f, strings.Join(ae.Fields[f], "; "))
	}
	return b.String()
}
