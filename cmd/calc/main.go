package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/internal/batch"
	"github.com/zephyrtronium/calc/internal/config"
	"github.com/zephyrtronium/calc/internal/logging"
)

// errFailed reports that at least one expression did not evaluate. Its
// details have already been printed.
var errFailed = errors.New("some expressions failed")

func main() {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errFailed):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "calc:", err)
		os.Exit(1)
	}
}

type options struct {
	configFile string
	logLevel   string
	inname     string
	verb       string
	lines      bool
	echo       bool
	jobs       int
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "calc [flags] [expression...]",
		Short: "Evaluate arithmetic expressions",
		Long: `Calc evaluates expressions using +, -, *, and / with the usual precedence.

Each argument is a separate expression. With no arguments, or with --in,
expressions are read from a file or standard input. Results are printed one
per line in input order.

Examples:
  calc '2 + 3 * 4'
  calc -n --in exprs.txt
  echo '(1 + 2) / 3' | calc`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &opts, args)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv(config.EnvConfigFilePath), "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.inname, "in", "", "input file, - for stdin (default stdin if no args given)")
	cmd.Flags().StringVar(&opts.verb, "fmt", "%g", "result formatting string")
	cmd.Flags().BoolVarP(&opts.lines, "lines", "n", false, "parse separate input lines as separate expressions")
	cmd.Flags().BoolVar(&opts.echo, "echo", false, "print parse trees")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "concurrent evaluations (default from config)")
	cmd.AddCommand(newServeCmd(&opts))
	return cmd
}

// loadConfig reads the config file and applies any flags the user set.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.LogLevel = opts.logLevel
	}
	if flags.Changed("fmt") {
		cfg.Format = opts.verb
	}
	if flags.Changed("lines") {
		cfg.Lines = opts.lines
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// item is one expression from the input.
type item struct {
	src string
	a   *calc.Expr
	err error
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging, cmd.ErrOrStderr())

	var items []item
	f, closer, err := infile(cmd, opts.inname, len(args) == 0)
	if err != nil {
		return err
	}
	if f != nil {
		defer closer.Close()
		lines := cfg.Lines || (!cmd.Flags().Changed("lines") && terminal(f))
		items, err = readExprs(f, lines)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	}
	for _, arg := range args {
		items = append(items, parse(arg))
	}

	var exprs []*calc.Expr
	for _, it := range items {
		if it.a != nil {
			exprs = append(exprs, it.a)
		}
	}
	log.Debug("Evaluating", slog.Int("count", len(exprs)), slog.Int("jobs", cfg.Jobs))
	results, err := batch.Eval(cmd.Context(), exprs, cfg.Jobs)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	verb := cfg.Format + "\n"
	failed := 0
	for _, it := range items {
		if it.err != nil {
			failed++
			report(w, it.src, it.err)
			continue
		}
		r := results[0]
		results = results[1:]
		if opts.echo {
			fmt.Fprintf(w, "%v : ", it.a)
		}
		if r.Err != nil {
			failed++
			report(w, it.src, r.Err)
			continue
		}
		fmt.Fprintf(w, verb, r.Value)
	}
	if failed > 0 {
		log.Info("Some expressions failed", slog.Int("failed", failed), slog.Int("total", len(items)))
		return errFailed
	}
	return nil
}

func parse(src string) item {
	a, err := calc.ParseString(src)
	return item{src: src, a: a, err: err}
}

// report prints a failed expression with the message appropriate to its kind.
func report(w io.Writer, src string, err error) {
	var msg string
	switch {
	case errors.Is(err, calc.ErrSyntax):
		msg = fmt.Sprintf("Expression is not valid: %q", src)
	case errors.Is(err, calc.ErrUnsupported):
		msg = fmt.Sprintf("Unsupported operation in expression %q", src)
	default:
		msg = fmt.Sprintf("Error in expression %q", src)
	}
	fmt.Fprintln(w, color.RedString("%s: %v", msg, err))
}

func infile(cmd *cobra.Command, inname string, std bool) (io.Reader, io.Closer, error) {
	switch {
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	case inname == "-", std:
		in := cmd.InOrStdin()
		return in, io.NopCloser(in), nil
	}
	return nil, nil, nil
}

// terminal reports whether r is an interactive terminal, in which case input
// is read line by line.
func terminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
