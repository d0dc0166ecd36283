// Command flint is the engine's command-line front end. It provides
// three modes of operation:
//
//  1. REPL mode (default): interactive read-eval-print loop over stdin.
//  2. File mode: evaluate the single expression held in a given file.
//  3. Server mode: listen on a TCP port and serve one REPL session per
//     connection.
//
// flint has no statements, declarations, or multi-expression programs
// (spec.md's Non-goals), so file mode evaluates exactly one expression
// rather than running a script.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/fatih/color"

	"github.com/silverfish-labs/flint/flint"
	"github.com/silverfish-labs/flint/repl"
)

var VERSION = "v0.1.0"

var AUTHOR = "silverfish-labs"

var LICENSE = "MIT"

var PROMPT = "flint >>> "

var BANNER = `
  ▄████  █         ▄█  ███▄▄▄▄       ▄████████
  ███    █        ███  ███▀▀▀██▄    ███    ███
  ███    █        ███  ███   ███    ███    █▀
 ███████ █        ███  ███   ███   ███
  ███    █        ███  ███   ███ ▀███████████
  ███    █        ███  ███   ███          ███
  ███    █▄▄▄▄▄▄▄  ███  ███   ███    ▄█    ███
 ▄████▄  ████████ █▀    ▀█   █▀   ▄████████▀
`

var LINE = "----------------------------------------------------------------"

var (
	redColor  = color.New(color.FgRed)
	cyanColor = color.New(color.FgCyan)
)

func main() {
	if len(os.Args) > 1 {
		arg := os.Args[1]

		if arg == "--help" || arg == "-h" {
			showHelp()
			os.Exit(0)
		}
		if arg == "--version" || arg == "-v" {
			showVersion()
			os.Exit(0)
		}
		if arg == "server" {
			if len(os.Args) < 3 {
				redColor.Fprintf(os.Stderr, "[USAGE ERROR] missing port for server mode. Usage: flint server <port>\n")
				os.Exit(1)
			}
			startServer(os.Args[2])
			return
		}
		runFile(arg)
		return
	}

	newRepl().Start(os.Stdin, os.Stdout)
}

func newRepl() *repl.Repl {
	return repl.New(BANNER, VERSION, AUTHOR, LINE, LICENSE, PROMPT, nil)
}

func showHelp() {
	cyanColor.Println("flint - an embeddable expression engine")
	cyanColor.Println("")
	cyanColor.Println("USAGE:")
	cyanColor.Println("  flint                   Start interactive REPL mode")
	cyanColor.Println("  flint <path-to-file>    Evaluate the expression held in a file")
	cyanColor.Println("  flint server <port>     Start a REPL server on the given port")
	cyanColor.Println("  flint --help            Display this help message")
	cyanColor.Println("  flint --version         Display version information")
	cyanColor.Println("")
	cyanColor.Println("REPL COMMANDS:")
	cyanColor.Println("  /exit                   Exit the REPL")
	cyanColor.Println("  /env                    Show currently bound variables")
}

func showVersion() {
	cyanColor.Printf("flint %s (%s license, %s)\n", VERSION, LICENSE, AUTHOR)
}

// runFile evaluates the single expression held in fileName's contents
// against an empty environment and prints the result.
func runFile(fileName string) {
	contents, err := os.ReadFile(fileName)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[FILE ERROR] could not read file %q: %v\n", fileName, err)
		os.Exit(1)
	}

	out, err := flint.Eval(string(contents), flint.NewEnvironment(), nil)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

// startServer listens on port and hands each connection its own REPL
// session.
func startServer(port string) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[SERVER ERROR] failed to start server on port %s: %v\n", port, err)
		os.Exit(1)
	}
	cyanColor.Printf("flint REPL server listening on :%s\n", port)
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			redColor.Fprintf(os.Stderr, "[SERVER ERROR] failed to accept connection: %v\n", err)
			continue
		}
		go handleClient(conn)
	}
}

func handleClient(conn net.Conn) {
	defer conn.Close()
	cyanColor.Printf("new client connected from %s\n", conn.RemoteAddr())
	newRepl().Start(conn, conn)
	cyanColor.Printf("client disconnected from %s\n", conn.RemoteAddr())
}
