package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quilldb/quill/internal/engine"
)

// repl holds the REPL's in-memory history for the running session (spec
// §6: "History is kept in memory per session").
type repl struct {
	engine  *engine.Engine
	out     io.Writer
	history []string
}

// runREPL drives the interactive prompt over stdin/stdout: it accumulates
// lines until a ';' closes a statement, executes it, and prints the
// formatted result, per spec §6's CLI prompt contract. Uses bufio.Scanner
// directly rather than a readline library — see DESIGN.md.
func runREPL(e *engine.Engine) error {
	r := &repl{engine: e, out: os.Stdout}
	fmt.Fprintln(r.out, banner())
	return r.run(os.Stdin)
}

func (r *repl) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder

	fmt.Fprint(r.out, prompt())
	for scanner.Scan() {
		line := scanner.Text()

		if pending.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "exit" {
				return nil
			}
			if trimmed == "" {
				fmt.Fprint(r.out, prompt())
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteByte('\n')

		if strings.Contains(line, ";") {
			stmt := pending.String()
			pending.Reset()
			r.execute(stmt)
			fmt.Fprint(r.out, prompt())
			continue
		}

		fmt.Fprint(r.out, continuation())
	}
	return scanner.Err()
}

func (r *repl) execute(stmt string) {
	r.history = append(r.history, stmt)
	fmt.Fprintln(r.out, r.engine.Execute(stmt))
}
