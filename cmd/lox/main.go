package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/wy3/lox/internal/config"
	"github.com/wy3/lox/internal/repl"
	"github.com/wy3/lox/internal/vm"
)

const version = "0.1.0"

// Conventional exit codes: sysexits EX_DATAERR and EX_SOFTWARE.
const (
	exitCompileError = 65
	exitRuntimeError = 70
)

var log = commonlog.GetLogger("lox")

func main() {
	trace := flag.Bool("trace", false, "log every executed instruction")
	disasm := flag.Bool("disasm", false, "dump compiled chunks before running")
	verbose := flag.Int("verbose", 0, "log verbosity")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lox %s\n", version)
		return
	}

	commonlog.Configure(*verbose, nil)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	if *trace {
		cfg.Trace = true
	}
	if *disasm {
		cfg.Disasm = true
	}

	machine := vm.New()
	defer machine.Close()
	machine.SetTrace(cfg.Trace)
	machine.SetDisasm(cfg.Disasm)

	log.Debugf("vm %s ready", machine.ID())

	switch flag.NArg() {
	case 0:
		if repl.Interactive() {
			if err := repl.New(machine, cfg).Run(); err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", err)
				os.Exit(1)
			}
			return
		}
		runStdin(machine)
	case 1:
		exit(machine.DoFile(flag.Arg(0)))
	default:
		fmt.Fprintf(os.Stderr, "Usage: lox [flags] [path]\n")
		os.Exit(64)
	}
}

// runStdin executes piped input as a script.
func runStdin(machine *vm.VM) {
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
		os.Exit(1)
	}
	exit(machine.Interpret("stdin", string(source)))
}

func exit(result vm.Result) {
	switch result {
	case vm.CompileError:
		os.Exit(exitCompileError)
	case vm.RuntimeError:
		os.Exit(exitRuntimeError)
	}
}
