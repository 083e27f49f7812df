// Package repl runs the assistant as an interactive terminal loop.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nomada-travel/nomada/backend/internal/service/turn"
)

// REPL reads messages from in, runs them through the orchestrator and
// prints the assistant replies to out.
type REPL struct {
	orch *turn.Orchestrator
	in   io.Reader
	out  io.Writer
}

// New creates a REPL over the given streams.
func New(orch *turn.Orchestrator, in io.Reader, out io.Writer) *REPL {
	return &REPL{orch: orch, in: in, out: out}
}

// Run loops until EOF, "quit" or "exit". Blank lines are skipped.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "Nomada travel assistant")
	fmt.Fprintln(r.out, "Type 'quit' or 'exit' to stop.")
	fmt.Fprintln(r.out)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out, "\nExiting.")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "quit", "exit":
			fmt.Fprintln(r.out, "Goodbye.")
			return nil
		case "":
			continue
		}

		result, err := r.orch.Submit(ctx, "", input)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}

		reply, ok := <-result.Reply
		if !ok {
			continue
		}

		fmt.Fprintln(r.out, "\nAssistant:")
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, reply.Content)
		fmt.Fprintln(r.out, "\n---")
		fmt.Fprintln(r.out)
	}
}
