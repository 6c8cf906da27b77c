// Package repl implements the interactive loop: read a line, compile,
// execute, report. Errors never exit the session.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/wy3/lox/internal/config"
	"github.com/wy3/lox/internal/vm"
)

var log = commonlog.GetLogger("lox.repl")

// Interactive reports whether stdin is attached to a terminal.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// REPL drives one interactive session over a VM.
type REPL struct {
	machine *vm.VM
	cfg     *config.Config
	hist    *History
	in      io.Reader
	out     io.Writer
}

// New creates a session. The history store opens lazily in Run so a
// bad path degrades to a session that records no history.
func New(machine *vm.VM, cfg *config.Config) *REPL {
	return &REPL{
		machine: machine,
		cfg:     cfg,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// Run reads lines until EOF. Compile and runtime errors print and the
// loop continues; only input exhaustion ends the session.
func (r *REPL) Run() error {
	if r.cfg.History != "" {
		hist, err := OpenHistory(r.cfg.History)
		if err != nil {
			log.Errorf("history store unavailable: %s", err)
		} else {
			r.hist = hist
			defer r.hist.Close()
		}
	}

	log.Infof("repl session on vm %s", r.machine.ID())

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, r.cfg.Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		r.record(line)
		r.machine.Interpret("repl", line)
	}
}

func (r *REPL) record(line string) {
	if r.hist == nil {
		return
	}
	if err := r.hist.Add(line); err != nil {
		log.Errorf("history write failed: %s", err)
	}
}
