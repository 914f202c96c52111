// Command pebble runs the pebble scripting language: a REPL when invoked
// with no arguments, or a single source file when given one path.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/pebblelang/pebble/internal/config"
	"github.com/pebblelang/pebble/internal/vm"
)

const replLineLimit = 1024

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(74)
	}

	switch len(os.Args) {
	case 1:
		runREPL(cfg)
	case 2:
		os.Exit(runFile(os.Args[1], cfg))
	default:
		fmt.Printf("Usage: %s [path]\n", os.Args[0])
	}
}

func newVM(cfg *config.EngineConfig) *vm.VM {
	machine := vm.New()
	machine.GC().StressMode = cfg.GC.Stress
	if cfg.GC.InitialThresholdBytes > 0 {
		machine.GC().SetInitialThreshold(cfg.GC.InitialThresholdBytes)
	}
	if cfg.TraceExecution {
		machine.GC().TraceLog = os.Stderr
	}
	return machine
}

func runFile(path string, cfg *config.EngineConfig) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file %q: %s\n", path, err)
		return 74
	}

	machine := newVM(cfg)
	switch machine.Interpret(string(source)) {
	case vm.InterpretCompileError:
		return 65
	case vm.InterpretRuntimeError:
		return 70
	default:
		return 0
	}
}

// runREPL prompts "> ", reads one line at a time (capped at
// replLineLimit bytes), and exits on EOF or the literal line ":q".
func runREPL(cfg *config.EngineConfig) {
	machine := newVM(cfg)
	color := colorEnabled(cfg)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, replLineLimit), replLineLimit)

	for {
		printPrompt(color)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			fmt.Println()
			return
		}

		line := scanner.Text()
		if line == ":q" {
			return
		}
		machine.Interpret(line)
	}
}

func printPrompt(color bool) {
	if color {
		fmt.Fprint(os.Stdout, "\x1b[36m>\x1b[0m ")
		return
	}
	fmt.Fprint(os.Stdout, "> ")
}

// colorEnabled resolves cfg.REPLColor against NO_COLOR and whether both
// ends of the terminal are attached to a TTY.
func colorEnabled(cfg *config.EngineConfig) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch cfg.REPLColor {
	case "always":
		return true
	case "never":
		return false
	default:
		return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	}
}
