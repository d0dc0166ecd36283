// Package repl implements flint's interactive Read-Eval-Print Loop: read
// one expression, parse it, compile it against a persistent environment,
// run it, and print the result or error, with command history and line
// editing from chzyer/readline.
//
// A Repl value carries banner text and prompt strings, a
// PrintBannerInfo/Start split, colored output via fatih/color, and
// panic recovery around each line so a bad host call never takes the
// session down.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/silverfish-labs/flint/flint"
)

var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Repl is a configured interactive session: banner and prompt text plus
// the adapter a host registers its types against. Environment is created
// fresh per Start call, so variables set in one session do not leak into
// another.
type Repl struct {
	Banner  string
	Version string
	Author  string
	Line    string
	License string
	Prompt  string
	Adapter flint.Adapter
}

// New returns a Repl ready to Start.
func New(banner, version, author, line, license, prompt string, adapter flint.Adapter) *Repl {
	return &Repl{Banner: banner, Version: version, Author: author, Line: line, License: license, Prompt: prompt, Adapter: adapter}
}

// PrintBannerInfo writes the startup banner and usage hints to writer.
func (r *Repl) PrintBannerInfo(writer io.Writer) {
	blueColor.Fprintf(writer, "%s\n", r.Line)
	greenColor.Fprintf(writer, "%s\n", r.Banner)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	yellowColor.Fprintln(writer, "Version: "+r.Version+" | Author: "+r.Author+" | License: "+r.License)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	cyanColor.Fprintf(writer, "%s\n", "Welcome to flint!")
	cyanColor.Fprintf(writer, "%s\n", "Type an expression and press enter")
	cyanColor.Fprintf(writer, "%s\n", "Type '/exit' to quit, '/env' to show bound variables")
	cyanColor.Fprintf(writer, "%s\n", "Use up/down arrows to navigate command history")
	blueColor.Fprintf(writer, "%s\n", r.Line)
}

// Start runs the REPL loop against writer until the user exits or input
// ends. Reader is accepted for symmetry with other flint entry points but
// readline reads directly from the terminal rather than from reader.
func (r *Repl) Start(reader io.Reader, writer io.Writer) {
	r.PrintBannerInfo(writer)

	rl, err := readline.New(r.Prompt)
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	env := flint.NewEnvironment()

	for {
		line, err := rl.Readline()
		if err != nil {
			writer.Write([]byte("Good bye!\n"))
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/exit" {
			writer.Write([]byte("Good bye!\n"))
			break
		}
		if line == "/env" {
			r.printEnv(writer, env)
			continue
		}

		rl.SaveHistory(line)
		r.evalWithRecovery(writer, line, env)
	}
}

func (r *Repl) printEnv(writer io.Writer, env *flint.Environment) {
	cyanColor.Fprintf(writer, "%s\n", r.Line)
	names := env.Names()
	if len(names) == 0 {
		cyanColor.Fprintln(writer, "(no bindings)")
	}
	for _, name := range names {
		v, _ := env.Get(name)
		yellowColor.Fprintf(writer, "%s = %v\n", name, v)
	}
	cyanColor.Fprintf(writer, "%s\n", r.Line)
}

// evalWithRecovery parses, compiles, and runs one line, displaying the
// result in yellow or the error in red. A panic from a misbehaving host
// callable is caught so the session keeps running.
func (r *Repl) evalWithRecovery(writer io.Writer, line string, env *flint.Environment) {
	defer func() {
		if recovered := recover(); recovered != nil {
			redColor.Fprintf(writer, "[RUNTIME ERROR] %v\n", recovered)
		}
	}()

	out, err := flint.Eval(line, env, r.Adapter)
	if err != nil {
		redColor.Fprintf(writer, "[ERROR] %v\n", err)
		return
	}
	yellowColor.Fprintf(writer, "%s\n", fmt.Sprintf("%v", out))
}
