package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

type flagType int

const (
	flagString flagType = iota
	flagBool
	flagInt
	flagEnum
	flagFile
	flagDir
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string
	Short    string
	Type     flagType
	Desc     string
	Values   []string
	FileGlob string
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
	Args  []string // fixed argument values, if any
}

// completionMeta holds completion hints the FlagSet cannot express.
type completionMeta struct {
	Values   []string
	FileGlob string
	IsDir    bool
}

var flagCompletionMeta = map[string]completionMeta{
	"page-size":   {Values: []string{"a3", "a4", "a5", "b5", "letter", "legal"}},
	"orientation": {Values: []string{"portrait", "landscape"}},
	"backend":     {Values: []string{"rod", "chromedp", "command"}},

	"config": {FileGlob: "*.yaml,*.yml"},
	"style":  {FileGlob: "*.css"},

	"workdir":    {IsDir: true},
	"output-dir": {IsDir: true},
	"asset-path": {IsDir: true},
}

// extractFlags turns the flags registered on fs into completion defs.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var flags []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}
		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}
		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type, fd.Values = flagEnum, meta.Values
			case meta.FileGlob != "":
				fd.Type, fd.FileGlob = flagFile, meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}
		flags = append(flags, fd)
	})
	return flags
}

// getCommands returns the command registry for completion. Flags come
// from the same registration functions the parsers use.
func getCommands() []commandDef {
	buildFS := flag.NewFlagSet("build", flag.ContinueOnError)
	registerBuildFlags(buildFS, &buildFlags{})
	batchFS := flag.NewFlagSet("batch", flag.ContinueOnError)
	registerBatchFlags(batchFS, &batchFlags{})
	fetchFS := flag.NewFlagSet("fetch", flag.ContinueOnError)
	registerFetchFlags(fetchFS, &fetchFlags{})
	templatesFS := flag.NewFlagSet("templates", flag.ContinueOnError)
	registerTemplatesFlags(templatesFS, &templatesFlags{})

	return []commandDef{
		{Name: "build", Desc: "Build one booklet", Flags: extractFlags(buildFS)},
		{Name: "batch", Desc: "Build several booklets", Flags: extractFlags(batchFS)},
		{Name: "fetch", Desc: "Download WordPress pages", Flags: extractFlags(fetchFS)},
		{Name: "templates", Desc: "List template types", Flags: extractFlags(templatesFS)},
		{Name: "doctor", Desc: "Check system configuration", Flags: []flagDef{
			{Long: "json", Type: flagBool, Desc: "print as JSON"},
			{Long: "workdir", Type: flagDir, Desc: "directory holding content files"},
		}},
		{Name: "completion", Desc: "Generate shell completion script",
			Args: []string{string(ShellBash), string(ShellZsh), string(ShellFish)}},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes shell completion script to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	bw := bufio.NewWriter(w)
	switch shell {
	case ShellBash:
		writeBash(bw, getCommands())
	case ShellZsh:
		writeZsh(bw, getCommands())
	case ShellFish:
		writeFish(bw, getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
	return bw.Flush()
}

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// helpArgs lists what "help" completes to.
func helpArgs(cmds []commandDef, c commandDef) []string {
	if c.Name == "help" {
		return commandNames(cmds)
	}
	return c.Args
}

func writeBash(w io.Writer, cmds []commandDef) {
	fmt.Fprintln(w, "# bash completion for booklet")
	fmt.Fprintln(w, "_booklet_completions() {")
	fmt.Fprintln(w, "    local cur prev cmd")
	fmt.Fprintln(w, `    cur="${COMP_WORDS[COMP_CWORD]}"`)
	fmt.Fprintln(w, `    prev="${COMP_WORDS[COMP_CWORD-1]}"`)
	fmt.Fprintln(w, "    if [[ ${COMP_CWORD} -eq 1 ]]; then")
	fmt.Fprintf(w, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(commandNames(cmds), " "))
	fmt.Fprintln(w, "        return")
	fmt.Fprintln(w, "    fi")
	fmt.Fprintln(w, `    cmd="${COMP_WORDS[1]}"`)
	fmt.Fprintln(w, `    case "$cmd" in`)
	for _, c := range cmds {
		fmt.Fprintf(w, "    %s)\n", c.Name)
		fmt.Fprintln(w, `        case "$prev" in`)
		for _, f := range c.Flags {
			pattern := "--" + f.Long
			if f.Short != "" {
				pattern += "|-" + f.Short
			}
			switch f.Type {
			case flagEnum:
				fmt.Fprintf(w, "        %s) COMPREPLY=($(compgen -W %q -- \"$cur\")); return ;;\n", pattern, strings.Join(f.Values, " "))
			case flagFile:
				fmt.Fprintf(w, "        %s) COMPREPLY=($(compgen -f -- \"$cur\")); return ;;\n", pattern)
			case flagDir:
				fmt.Fprintf(w, "        %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;\n", pattern)
			case flagString, flagInt:
				fmt.Fprintf(w, "        %s) return ;;\n", pattern)
			}
		}
		fmt.Fprintln(w, "        esac")
		var words []string
		for _, f := range c.Flags {
			words = append(words, "--"+f.Long)
		}
		words = append(words, helpArgs(cmds, c)...)
		fmt.Fprintf(w, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(words, " "))
		fmt.Fprintln(w, "        ;;")
	}
	fmt.Fprintln(w, "    esac")
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w, "complete -F _booklet_completions booklet")
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

func writeZsh(w io.Writer, cmds []commandDef) {
	fmt.Fprintln(w, "#compdef booklet")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "_booklet() {")
	fmt.Fprintln(w, "    local -a commands")
	fmt.Fprintln(w, "    commands=(")
	for _, c := range cmds {
		fmt.Fprintf(w, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	fmt.Fprintln(w, "    )")
	fmt.Fprintln(w, "    if (( CURRENT == 2 )); then")
	fmt.Fprintln(w, "        _describe 'command' commands")
	fmt.Fprintln(w, "        return")
	fmt.Fprintln(w, "    fi")
	fmt.Fprintln(w, "    case \"${words[2]}\" in")
	for _, c := range cmds {
		fmt.Fprintf(w, "    %s)\n", c.Name)
		fmt.Fprintln(w, "        _arguments \\")
		for _, f := range c.Flags {
			action := ""
			switch f.Type {
			case flagEnum:
				action = ":value:(" + strings.Join(f.Values, " ") + ")"
			case flagFile:
				action = ":file:_files"
				for _, g := range strings.Split(f.FileGlob, ",") {
					action += ` -g "` + g + `"`
				}
			case flagDir:
				action = ":directory:_files -/"
			case flagString, flagInt:
				action = ":value:"
			}
			spec := fmt.Sprintf("'--%s[%s]%s'", f.Long, zshEscape(f.Desc), action)
			if f.Short != "" {
				spec = fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, zshEscape(f.Desc), action)
			}
			fmt.Fprintf(w, "            %s \\\n", spec)
		}
		if args := helpArgs(cmds, c); len(args) > 0 {
			fmt.Fprintf(w, "            '1:argument:(%s)' \\\n", strings.Join(args, " "))
		}
		fmt.Fprintln(w, "            '*::arg:'")
		fmt.Fprintln(w, "        ;;")
	}
	fmt.Fprintln(w, "    esac")
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w)
	fmt.Fprintln(w, `_booklet "$@"`)
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

func writeFish(w io.Writer, cmds []commandDef) {
	fmt.Fprintln(w, "# fish completion for booklet")
	fmt.Fprintln(w, "function __fish_booklet_needs_command")
	fmt.Fprintln(w, "    set -l cmd (commandline -opc)")
	fmt.Fprintln(w, "    test (count $cmd) -eq 1")
	fmt.Fprintln(w, "end")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "function __fish_booklet_using_command")
	fmt.Fprintln(w, "    set -l cmd (commandline -opc)")
	fmt.Fprintln(w, "    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]")
	fmt.Fprintln(w, "end")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "complete -c booklet -f")
	for _, c := range cmds {
		fmt.Fprintf(w, "complete -c booklet -n '__fish_booklet_needs_command' -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_booklet_using_command %s'", c.Name)
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c booklet -n %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Type {
			case flagEnum:
				line += fmt.Sprintf(" -x -a '%s'", strings.Join(f.Values, " "))
			case flagFile:
				line += " -r -F"
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			case flagString, flagInt:
				line += " -x"
			}
			line += fmt.Sprintf(" -d '%s'", fishEscape(f.Desc))
			fmt.Fprintln(w, line)
		}
		if args := helpArgs(cmds, c); len(args) > 0 {
			fmt.Fprintf(w, "complete -c booklet -n %s -a '%s'\n", cond, strings.Join(args, " "))
		}
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: booklet completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    eval \"$(booklet completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    eval \"$(booklet completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    booklet completion fish > ~/.config/fish/completions/booklet.fish")
}
