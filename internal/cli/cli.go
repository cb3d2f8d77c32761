package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/specialistvlad/gridflow/internal/app"
	"github.com/specialistvlad/gridflow/internal/scheduler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "GRIDFLOW"
	// VarEnvPrefix marks environment variables that bind workflow variables,
	// e.g. GRIDFLOW_VAR_FILE_NAME sets var.file_name.
	VarEnvPrefix = EnvPrefix + "_VAR_"

	// ExitUsage is the exit code for invalid invocations.
	ExitUsage = 2
)

// Version is set at build time.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Invocation is a parsed command line: which command to run and with what
// configuration.
type Invocation struct {
	Command string // "run" or "list"
	Config  *app.Config
}

// Parse processes command-line arguments. It returns the invocation, a
// boolean indicating if the program should exit cleanly (help, version), or
// an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")
	p := &parser{v: viper.New(), out: output}
	p.v.SetEnvPrefix(EnvPrefix)
	p.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	p.v.AutomaticEnv()

	if args == nil {
		// cobra falls back to os.Args for nil.
		args = []string{}
	}
	root := p.rootCommand()
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	if err := root.Execute(); err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	if p.inv == nil {
		return nil, true, nil
	}
	slog.Debug("CLI parser finished successfully.", "command", p.inv.Command)
	return p.inv, false, nil
}

type parser struct {
	v   *viper.Viper
	out io.Writer
	inv *Invocation
}

func (p *parser) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gridflow",
		Short: "Build file artifacts from a graph of dependent tasks",
		Long: `gridflow runs workflows of tasks declared in HCL. Each task names the
files it produces; a task whose outputs already exist is not run again, so
re-running a workflow only does the work that is still missing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringSliceP("workflow", "w", nil, "Workflow .hcl file or directory (repeatable).")
	pf.String("config", "", "Optional YAML config file.")
	pf.StringArray("var", nil, "Set a workflow variable, name=value (repeatable).")
	pf.String("log-level", "info", "Logging level: debug, info, warn or error.")
	pf.String("log-format", "text", "Log output format: text or json.")

	root.AddCommand(p.runCommand(), p.listCommand(), p.versionCommand())
	return root
}

func (p *parser) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] ROOT_TASK",
		Short: "Build a task and everything it depends on",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := p.config(cmd)
			if err != nil {
				return err
			}
			root := p.v.GetString("task")
			if len(args) == 1 {
				if root != "" && root != args[0] {
					return fmt.Errorf("root task given twice: %q and %q", args[0], root)
				}
				root = args[0]
			}
			if root == "" {
				return fmt.Errorf("a root task is required")
			}
			cfg.RootTask = root
			p.inv = &Invocation{Command: "run", Config: cfg}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("task", "t", "", "Root task, alternative to the positional argument.")
	f.Int("workers", scheduler.DefaultWorkers, "Number of concurrent workers.")
	f.Bool("strict-outputs", false, "Fail tasks that finish without producing all outputs.")
	f.Bool("no-prune", false, "Check every task in the graph, even below complete ones.")
	f.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func (p *parser) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the task instances of a workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := p.config(cmd)
			if err != nil {
				return err
			}
			p.inv = &Invocation{Command: "list", Config: cfg}
			return nil
		},
	}
}

func (p *parser) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(p.out, "gridflow %s\n", Version)
		},
	}
}

// config merges flags, environment and config file into an app.Config.
// Precedence is flag, then environment, then file, then flag default.
func (p *parser) config(cmd *cobra.Command) (*app.Config, error) {
	if err := p.v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if file := p.v.GetString("config"); file != "" {
		p.v.SetConfigFile(file)
		if err := p.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
		slog.Debug("Config file loaded.", "file", p.v.ConfigFileUsed())
	}

	vars, err := p.vars(cmd)
	if err != nil {
		return nil, err
	}

	return app.NewConfig(app.Config{
		WorkflowPaths:   p.v.GetStringSlice("workflow"),
		Vars:            vars,
		Workers:         p.v.GetInt("workers"),
		StrictOutputs:   p.v.GetBool("strict-outputs"),
		NoPrune:         p.v.GetBool("no-prune"),
		LogFormat:       strings.ToLower(p.v.GetString("log-format")),
		LogLevel:        strings.ToLower(p.v.GetString("log-level")),
		HealthcheckPort: p.v.GetInt("healthcheck-port"),
	})
}

// vars collects variable bindings: the config file's vars map, then
// GRIDFLOW_VAR_* environment variables, then --var flags.
func (p *parser) vars(cmd *cobra.Command) (map[string]string, error) {
	vars := p.v.GetStringMapString("vars")
	if vars == nil {
		vars = map[string]string{}
	}

	env := os.Environ()
	sort.Strings(env)
	for _, kv := range env {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, VarEnvPrefix) || len(name) == len(VarEnvPrefix) {
			continue
		}
		vars[strings.ToLower(strings.TrimPrefix(name, VarEnvPrefix))] = value
	}

	flags, err := cmd.Flags().GetStringArray("var")
	if err != nil {
		return nil, err
	}
	for _, kv := range flags {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: want name=value", kv)
		}
		vars[name] = value
	}
	return vars, nil
}
