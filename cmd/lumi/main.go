// Command lumi is the Lumi language CLI: run a source file, disassemble
// its compiled chunk, or drop into an interactive REPL.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/caiquetorres/lumi/pkg/bytecode"
	"github.com/caiquetorres/lumi/pkg/config"
	"github.com/caiquetorres/lumi/pkg/diagnostics"
	"github.com/caiquetorres/lumi/pkg/emitter"
	"github.com/caiquetorres/lumi/pkg/parser"
	"github.com/caiquetorres/lumi/pkg/span"
	"github.com/caiquetorres/lumi/pkg/vm"
)

var version = "0.1.0"

var (
	flagVerbose bool
	flagColor   bool
	flagConfig  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lumi",
		Short: "Lumi is a class-based scripting language compiler and VM",
	}
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable structured debug tracing to stderr")
	root.PersistentFlags().BoolVar(&flagColor, "color", true, "colorize diagnostic output")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a lumi.toml configuration file")

	root.AddCommand(newRunCmd(), newDisasmCmd(), newReplCmd(), newVersionCmd())
	return root
}

func loadConfig() config.Config {
	cfg := config.Default()
	if flagConfig != "" {
		if loaded, err := config.Load(flagConfig); err == nil {
			cfg = loaded
		} else {
			fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", flagConfig, err)
		}
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	cfg.Color = cfg.Color && flagColor
	return cfg
}

func compile(path string) (*bytecode.Chunk, []diagnostics.Diagnostic, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	source := span.NewSourceCode(path, string(text))

	p := parser.New(source)
	prog, err := p.Parse()
	if err != nil {
		return nil, []diagnostics.Diagnostic{{Message: err.Error()}}, nil
	}

	chunk, err := emitter.Emit(prog)
	if err != nil {
		return nil, []diagnostics.Diagnostic{{Message: err.Error()}}, nil
	}
	return chunk, nil, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and execute a Lumi source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			chunk, diags, err := compile(args[0])
			if err != nil {
				return err
			}
			if len(diags) > 0 {
				diagnostics.Render(os.Stderr, diags, cfg.Color)
				os.Exit(1)
			}

			logger := vm.NewLogger(os.Stderr)
			logger.SetVerbose(cfg.Verbose)
			machine := vm.New(os.Stdout, logger)
			if err := machine.Run(chunk); err != nil {
				if rtErr, ok := err.(*vm.RuntimeError); ok {
					diagnostics.RenderRuntimeError(os.Stderr, rtErr, cfg.Color)
					os.Exit(1)
				}
				return err
			}
			return nil
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "disasm <file>",
		Aliases: []string{"disassemble"},
		Short:   "Compile a Lumi source file and print its disassembled bytecode",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			chunk, diags, err := compile(args[0])
			if err != nil {
				return err
			}
			if len(diags) > 0 {
				diagnostics.Render(os.Stderr, diags, cfg.Color)
				os.Exit(1)
			}
			fmt.Print(bytecode.Disassemble(chunk))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lumi version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

var (
	replBanner = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	replPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive Lumi session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger := vm.NewLogger(os.Stderr)
			logger.SetVerbose(cfg.Verbose)
			machine := vm.New(os.Stdout, logger)

			fmt.Println(replBanner.Render(fmt.Sprintf("lumi %s - interactive session", version)))
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print(replPrompt.Render("lumi> "))
				if !scanner.Scan() {
					return nil
				}
				line := scanner.Text()
				if line == "" {
					continue
				}
				source := span.NewSourceCode("<repl>", line)
				p := parser.New(source)
				prog, err := p.Parse()
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				chunk, err := emitter.Emit(prog)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				if err := machine.Run(chunk); err != nil {
					if rtErr, ok := err.(*vm.RuntimeError); ok {
						diagnostics.RenderRuntimeError(os.Stderr, rtErr, cfg.Color)
					} else {
						fmt.Fprintln(os.Stderr, err)
					}
				}
			}
		},
	}
}
