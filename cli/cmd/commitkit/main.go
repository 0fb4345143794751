package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"commitkit/cli/internal/changelog"
	"commitkit/cli/internal/config"
	"commitkit/cli/internal/erruser"
	"commitkit/cli/internal/git"
	"commitkit/cli/internal/hooks"
	"commitkit/cli/internal/message"
	"commitkit/cli/internal/prompt"
	"commitkit/cli/internal/stats"
	"commitkit/cli/internal/template"
	"commitkit/cli/internal/validate"
	"commitkit/cli/internal/version"
)

// errExit is an error that carries an exit code for the CLI. Use errors.As to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

// stdout and stderr are replaceable so tests can capture output.
var stdout io.Writer = os.Stdout
var stderr io.Writer = os.Stderr

// stdin feeds the interactive prompts. Tests may replace it to script a session.
var stdin io.Reader = os.Stdin

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI. It is exported for testing so that
// main.go can meet per-file coverage requirements.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	rootCmd := &cobra.Command{
		Use:     "commitkit",
		Short:   "Guided conventional commit messages",
		Version: version.String(),
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (skips global and repo config)")
	rootCmd.AddCommand(newCommitCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newPrepareMsgCmd())
	rootCmd.AddCommand(newTemplateCmd())
	rootCmd.AddCommand(newChangelogCmd())
	rootCmd.AddCommand(newHooksCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		fmt.Fprintln(stderr, err)
		if u := errors.Unwrap(err); u != nil {
			fmt.Fprintf(stderr, "Details: %v\n", u)
		}
		return 1
	}
	return 0
}

// loadConfig resolves the repo root from the working directory and loads
// configuration, honoring the persistent --config flag.
func loadConfig(cmd *cobra.Command, overrides *config.Overrides) (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", erruser.New("Could not determine current directory.", err)
	}
	repoRoot, err := git.RepoRoot(cwd)
	if err != nil {
		return nil, "", err
	}
	explicit, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{
		RepoRoot:     repoRoot,
		ExplicitPath: explicit,
		Overrides:    overrides,
	})
	if err != nil {
		return nil, "", err
	}
	return cfg, repoRoot, nil
}

func newCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Build a conventional commit message interactively and commit staged changes",
		RunE:  runCommit,
	}
	cmd.Flags().Bool("dry-run", false, "Print the message instead of committing")
	cmd.Flags().Bool("emoji", false, "Decorate the commit type with its emoji")
	cmd.Flags().Bool("signoff", false, "Add a Signed-off-by trailer")
	cmd.Flags().Bool("changelog", false, "Record the commit in the changelog")
	cmd.Flags().StringP("template", "t", "", "Fill a named template instead of the guided questions")
	return cmd
}

// overridesFromFlags returns Overrides for the boolean commit flags when
// they were set on the command line.
func overridesFromFlags(cmd *cobra.Command) *config.Overrides {
	o := &config.Overrides{}
	set := false
	for flag, dst := range map[string]**bool{
		"emoji":     &o.UseEmoji,
		"signoff":   &o.SignOffCommits,
		"changelog": &o.UpdateChangelog,
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v, _ := cmd.Flags().GetBool(flag)
			*dst = &v
			set = true
		}
	}
	if !set {
		return nil
	}
	return o
}

func runCommit(cmd *cobra.Command, args []string) error {
	cfg, repoRoot, err := loadConfig(cmd, overridesFromFlags(cmd))
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun {
		staged, err := git.HasStagedChanges(repoRoot)
		if err != nil {
			return err
		}
		if !staged {
			fmt.Fprintln(stderr, "No staged changes. Stage files with 'git add' first.")
			return errExit(1)
		}
	}

	prompter := prompt.NewTerminal(stdin, stdout)
	var typ, scope, subject, body, footer string
	if tplName, _ := cmd.Flags().GetString("template"); tplName != "" {
		typ, scope, subject, body, footer, err = fillFromTemplate(cfg, repoRoot, tplName, prompter)
	} else {
		typ, scope, subject, body, footer, err = askInteractive(cfg, prompter)
	}
	if err != nil {
		return err
	}

	msg := message.Build(typ, scope, subject, body, footer)
	if err := validate.Validate(msg, cfg.Rules()); err != nil {
		fmt.Fprintln(stderr, guidance(err))
		return errExit(1)
	}
	msg = message.ApplyEmoji(typ, msg, cfg.UseEmoji)

	if dryRun {
		fmt.Fprintln(stdout, msg)
		return nil
	}
	if err := git.Commit(repoRoot, msg, cfg.SignOffCommits); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Committed:")
	fmt.Fprintln(stdout, "  "+strings.SplitN(msg, "\n", 2)[0])

	if cfg.UpdateChangelog {
		mgr := changelog.New(cfg.EffectiveChangelogPath(repoRoot), cfg.EffectiveProjectName(repoRoot))
		if cfg.Version != "" {
			mgr.WithVersion(cfg.Version)
		}
		if err := mgr.AddEntry(typ, scope, subject, body); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Changelog updated.")
	}
	return nil
}

// askInteractive runs the guided question flow. Scope is re-asked while
// empty when the configuration requires one.
func askInteractive(cfg *config.Config, p prompt.Prompter) (typ, scope, subject, body, footer string, err error) {
	prefix, err := p.SelectPrefix(cfg.Prefixes)
	if err != nil {
		return "", "", "", "", "", err
	}
	for {
		scope, err = p.SelectScope(cfg.Scopes)
		if err != nil {
			return "", "", "", "", "", err
		}
		if scope != "" || !cfg.RequireScope {
			break
		}
		fmt.Fprintln(stderr, "A scope is required by configuration.")
	}
	subject, err = p.Subject(cfg.MaxSubjectLen)
	if err != nil {
		return "", "", "", "", "", err
	}
	body, err = p.Body()
	if err != nil {
		return "", "", "", "", "", err
	}
	footer, err = p.Footer()
	if err != nil {
		return "", "", "", "", "", err
	}
	return prefix.Title, scope, subject, body, footer, nil
}

// fillFromTemplate loads the named template, asks one question per
// placeholder, and derives the commit header from the filled subject.
func fillFromTemplate(cfg *config.Config, repoRoot, name string, p prompt.Prompter) (typ, scope, subject, body, footer string, err error) {
	mgr, err := template.NewManager(cfg.EffectiveTemplatesDir(repoRoot))
	if err != nil {
		return "", "", "", "", "", err
	}
	tpl, err := mgr.Get(name)
	if err != nil {
		if errors.Is(err, template.ErrTemplateNotFound) {
			return "", "", "", "", "", erruser.New("Template "+strconv.Quote(name)+" not found. Run 'commitkit template list'.", err)
		}
		return "", "", "", "", "", err
	}
	values := make(map[string]string)
	for _, ph := range template.Placeholders(tpl) {
		v, err := p.Custom(ph)
		if err != nil {
			return "", "", "", "", "", err
		}
		values[ph] = v
	}
	subject, body, footer = template.Fill(tpl, values)
	typ, scope, subject = template.DeriveHeader(subject, cfg.AllowedTypes())
	return typ, scope, subject, body, footer, nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a commit message file (used by the commit-msg hook)",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Hooks run from the repo root; fall back to defaults when config
	// cannot be loaded so validation still works.
	rules := config.DefaultConfig().Rules()
	if cfg, _, err := loadConfig(cmd, nil); err == nil {
		rules = cfg.Rules()
	}
	if err := validate.ValidateFile(args[0], rules); err != nil {
		fmt.Fprintln(stderr, guidance(err))
		return errExit(1)
	}
	return nil
}

// guidance maps a validation failure to a short actionable hint.
func guidance(err error) string {
	msg := "Invalid commit message: " + err.Error()
	switch {
	case errors.Is(err, validate.ErrInvalidFormat):
		return msg + "\nExpected: <type>(<scope>): <subject>, e.g. \"feat(core): add retry support\"."
	case errors.Is(err, validate.ErrInvalidType):
		return msg + "\nRun 'commitkit commit' to pick from the configured types."
	case errors.Is(err, validate.ErrInvalidScope):
		return msg + "\nAdd a scope in parentheses, e.g. \"fix(parser): ...\"."
	case errors.Is(err, validate.ErrSubjectTooShort), errors.Is(err, validate.ErrSubjectTooLong):
		return msg + "\nKeep the subject concise and within the configured length."
	default:
		return msg
	}
}

func newPrepareMsgCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare-msg <message>",
		Short: "Rewrite a proposed message into conventional commit form (used by the prepare-commit-msg hook)",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrepareMsg,
	}
}

func runPrepareMsg(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if loaded, _, err := loadConfig(cmd, nil); err == nil {
		cfg = *loaded
	}
	original := args[0]
	firstLine, rest, hasRest := strings.Cut(original, "\n")
	firstLine = strings.TrimSuffix(firstLine, "\r")

	var out string
	if typ, _, _, ok := validate.Parse(firstLine); ok {
		// Already conventional; decorate only.
		out = message.ApplyEmoji(typ, firstLine, cfg.UseEmoji)
	} else {
		typ := "chore"
		if types := cfg.AllowedTypes(); len(types) > 0 && !contains(types, typ) {
			typ = types[0]
		}
		line := typ + ": " + strings.TrimSpace(firstLine)
		out = message.ApplyEmoji(typ, line, cfg.UseEmoji)
	}
	if hasRest {
		out += "\n" + rest
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage commit message templates",
	}
	cmd.AddCommand(newTemplateListCmd())
	cmd.AddCommand(newTemplateShowCmd())
	cmd.AddCommand(newTemplateAddCmd())
	cmd.AddCommand(newTemplateRemoveCmd())
	return cmd
}

// templateManager opens the template directory for the current repository.
func templateManager(cmd *cobra.Command) (*template.Manager, error) {
	cfg, repoRoot, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	return template.NewManager(cfg.EffectiveTemplatesDir(repoRoot))
}

func newTemplateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := templateManager(cmd)
			if err != nil {
				return err
			}
			for _, tpl := range mgr.List() {
				fmt.Fprintf(stdout, "%-12s %s\n", tpl.Name, tpl.Description)
			}
			return nil
		},
	}
}

func newTemplateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a template and its placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := templateManager(cmd)
			if err != nil {
				return err
			}
			tpl, err := mgr.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "name:        %s\n", tpl.Name)
			fmt.Fprintf(stdout, "description: %s\n", tpl.Description)
			fmt.Fprintf(stdout, "subject:     %s\n", tpl.SubjectTemplate)
			if tpl.BodyTemplate != "" {
				fmt.Fprintf(stdout, "body:        %s\n", tpl.BodyTemplate)
			}
			if tpl.FooterTemplate != "" {
				fmt.Fprintf(stdout, "footer:      %s\n", tpl.FooterTemplate)
			}
			if phs := template.Placeholders(tpl); len(phs) > 0 {
				fmt.Fprintf(stdout, "placeholders: %s\n", strings.Join(phs, ", "))
			}
			return nil
		},
	}
}

func newTemplateAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := templateManager(cmd)
			if err != nil {
				return err
			}
			subject, _ := cmd.Flags().GetString("subject")
			if subject == "" {
				return errors.New("--subject is required")
			}
			description, _ := cmd.Flags().GetString("description")
			body, _ := cmd.Flags().GetString("body")
			footer, _ := cmd.Flags().GetString("footer")
			return mgr.Add(template.Template{
				Name:            args[0],
				Description:     description,
				SubjectTemplate: subject,
				BodyTemplate:    body,
				FooterTemplate:  footer,
			})
		},
	}
	cmd.Flags().String("description", "", "One-line template description")
	cmd.Flags().String("subject", "", "Subject template, e.g. \"feat({scope}): {what}\"")
	cmd.Flags().String("body", "", "Body template (optional)")
	cmd.Flags().String("footer", "", "Footer template (optional)")
	return cmd
}

func newTemplateRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := templateManager(cmd)
			if err != nil {
				return err
			}
			if err := mgr.Delete(args[0]); err != nil {
				if errors.Is(err, template.ErrTemplateNotFound) {
					fmt.Fprintf(stderr, "No template named %q.\n", args[0])
					return errExit(1)
				}
				return err
			}
			return nil
		},
	}
}

func newChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Manage the project changelog",
	}
	cmd.AddCommand(newChangelogAddCmd())
	cmd.AddCommand(newChangelogReleaseCmd())
	return cmd
}

// changelogManager opens the changelog for the current repository.
func changelogManager(cmd *cobra.Command) (*changelog.Manager, error) {
	cfg, repoRoot, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	mgr := changelog.New(cfg.EffectiveChangelogPath(repoRoot), cfg.EffectiveProjectName(repoRoot))
	if cfg.Version != "" {
		mgr.WithVersion(cfg.Version)
	}
	return mgr, nil
}

func newChangelogAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry to the active changelog section",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			subject, _ := cmd.Flags().GetString("subject")
			if typ == "" || subject == "" {
				return errors.New("--type and --subject are required")
			}
			scope, _ := cmd.Flags().GetString("scope")
			body, _ := cmd.Flags().GetString("body")
			mgr, err := changelogManager(cmd)
			if err != nil {
				return err
			}
			return mgr.AddEntry(typ, scope, subject, body)
		},
	}
	cmd.Flags().String("type", "", "Commit type, e.g. feat or fix")
	cmd.Flags().String("scope", "", "Scope of the change (optional)")
	cmd.Flags().String("subject", "", "Entry subject")
	cmd.Flags().String("body", "", "Details rendered as sub-bullets (optional)")
	return cmd
}

func newChangelogReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <version>",
		Short: "Promote the Unreleased section to a released version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := changelogManager(cmd)
			if err != nil {
				return err
			}
			if err := mgr.UpdateVersion(args[0]); err != nil {
				if errors.Is(err, changelog.ErrNoChangelog) {
					fmt.Fprintln(stderr, "No changelog yet. Run 'commitkit changelog add' first.")
					return errExit(1)
				}
				return err
			}
			fmt.Fprintf(stdout, "Released %s.\n", args[0])
			return nil
		},
	}
}

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Install or remove the commitkit git hooks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Install the prepare-commit-msg and commit-msg hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := hooksManager()
			if err != nil {
				return err
			}
			if err := mgr.InstallPrepareCommitMsg(); err != nil {
				return err
			}
			if err := mgr.InstallCommitMsg(); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Hooks installed in %s.\n", mgr.HooksDir())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove",
		Short: "Remove the commitkit hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := hooksManager()
			if err != nil {
				return err
			}
			if err := mgr.Remove(hooks.PrepareCommitMsg); err != nil {
				return err
			}
			if err := mgr.Remove(hooks.CommitMsg); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Hooks removed.")
			return nil
		},
	})
	return cmd
}

func hooksManager() (*hooks.Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, erruser.New("Could not determine current directory.", err)
	}
	root, err := hooks.FindRepoRoot(cwd)
	if err != nil {
		return nil, erruser.New("This directory is not inside a Git repository.", err)
	}
	return hooks.NewManager(root), nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report commit statistics (types, scopes, contributors)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return erruser.New("Could not determine current directory.", err)
			}
			repoRoot, err := git.RepoRoot(cwd)
			if err != nil {
				return err
			}
			days, _ := cmd.Flags().GetInt("days")
			out, err := stats.NewAnalyzer(repoRoot).Summary(days)
			if err != nil {
				return err
			}
			fmt.Fprint(stdout, out)
			return nil
		},
	}
	cmd.Flags().Int("days", 0, "Only count commits from the last N days (0 = all history)")
	return cmd
}
