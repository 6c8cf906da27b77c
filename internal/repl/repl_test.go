package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wy3/lox/internal/config"
	"github.com/wy3/lox/internal/vm"
)

func session(t *testing.T, input string) (string, string) {
	t.Helper()

	machine := vm.New()
	defer machine.Close()

	var out, errOut bytes.Buffer
	machine.SetOutput(&out)
	machine.SetErrorOutput(&errOut)

	cfg := config.Default()
	cfg.History = "" // no store in tests

	r := New(machine, cfg)
	r.in = strings.NewReader(input)
	r.out = &out

	if err := r.Run(); err != nil {
		t.Fatalf("run failed: %s", err)
	}
	return out.String(), errOut.String()
}

func TestSessionEvaluates(t *testing.T) {
	out, _ := session(t, "print 1 + 2;\n")
	if !strings.Contains(out, "3\n") {
		t.Errorf("output %q lacks the result", out)
	}
}

func TestSessionKeepsGlobals(t *testing.T) {
	out, _ := session(t, "var a = 1;\nprint a;\n")
	if !strings.Contains(out, "1\n") {
		t.Errorf("output %q lacks the global's value", out)
	}
}

func TestSessionSurvivesErrors(t *testing.T) {
	out, errOut := session(t, "print nope;\nprint 2;\n")
	if !strings.Contains(errOut, "Undefined variable 'nope'.") {
		t.Errorf("stderr %q lacks the error", errOut)
	}
	if !strings.Contains(out, "2\n") {
		t.Errorf("session died after a runtime error: %q", out)
	}
}

func TestSessionSkipsBlankLines(t *testing.T) {
	out, errOut := session(t, "\n\nprint 1;\n")
	if errOut != "" {
		t.Errorf("blank lines produced errors: %q", errOut)
	}
	if !strings.Contains(out, "1\n") {
		t.Errorf("output %q", out)
	}
}
