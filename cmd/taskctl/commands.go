package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"taskbridge-bot/internal/resolver"
	"taskbridge-bot/internal/tasks"
	"taskbridge-bot/version"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errNotFound is returned after the available names were printed.
var errNotFound = errors.New("not found")

// sectionFetchLimit bounds concurrent section requests for --all.
const sectionFetchLimit = 4

type app struct {
	out       io.Writer
	directory func() (tasks.ProjectDirectory, error)
}

var (
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	hint    = color.New(color.FgYellow)
	heading = color.New(color.Bold)
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Inspect Todoist projects and sections for the bot configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(a.out, version.String())
			},
		},
		&cobra.Command{
			Use:   "projects",
			Short: "List projects with their ids",
			Args:  cobra.NoArgs,
			RunE:  a.runProjects,
		},
		a.sectionsCmd(),
		&cobra.Command{
			Use:   "lookup <project-name> [section-name]",
			Short: "Find the ids of a project and optionally one of its sections",
			Long: `Find the ids of a project and optionally one of its sections by name.

Names are matched case-insensitively. The result is printed as .env lines
for TODOIST_DEFAULT_PROJECT_ID and TODOIST_DEFAULT_SECTION_ID.`,
			Args: cobra.RangeArgs(1, 2),
			RunE: a.runLookup,
		},
	)
	return root
}

func (a *app) sectionsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sections [project-id]",
		Short: "List sections of one project, or of every project with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return a.runAllSections(cmd.Context())
			}
			return a.runSections(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list sections of every project")
	return cmd
}

func (a *app) runProjects(cmd *cobra.Command, _ []string) error {
	directory, err := a.directory()
	if err != nil {
		return err
	}

	projects, err := directory.Projects(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Fprintln(a.out, "Проекты не найдены")
		return nil
	}

	depth := projectDepths(projects)
	heading.Fprintln(a.out, "Доступные проекты в Todoist:")
	fmt.Fprintln(a.out, strings.Repeat("-", 50))
	for _, p := range projects {
		fmt.Fprintf(a.out, "%sID: %s | Название: %s\n", strings.Repeat("  ", depth[p.ID]), p.ID, p.Name)
	}
	fmt.Fprintln(a.out, strings.Repeat("-", 50))
	fmt.Fprintf(a.out, "Всего проектов: %d\n\n", len(projects))
	hint.Fprintln(a.out, "Для использования проекта по умолчанию добавьте в .env:")
	fmt.Fprintln(a.out, "TODOIST_DEFAULT_PROJECT_ID=<ID_проекта>")
	return nil
}

// projectDepths returns the nesting level of every project. Parents that
// are not in the list count as roots.
func projectDepths(projects []tasks.Project) map[string]int {
	parent := make(map[string]string, len(projects))
	for _, p := range projects {
		parent[p.ID] = p.ParentID
	}

	depth := make(map[string]int, len(projects))
	for _, p := range projects {
		d := 0
		seen := map[string]bool{p.ID: true}
		for id := parent[p.ID]; id != ""; id = parent[id] {
			if _, ok := parent[id]; !ok || seen[id] {
				break
			}
			seen[id] = true
			d++
		}
		depth[p.ID] = d
	}
	return depth
}

func (a *app) runSections(ctx context.Context, projectID string) error {
	directory, err := a.directory()
	if err != nil {
		return err
	}

	sections, err := directory.Sections(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to list sections of project %s: %w", projectID, err)
	}

	heading.Fprintf(a.out, "Колонки проекта %s:\n", projectID)
	a.printSections(sections)
	return nil
}

func (a *app) runAllSections(ctx context.Context) error {
	directory, err := a.directory()
	if err != nil {
		return err
	}

	projects, err := directory.Projects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	sections := make([][]tasks.Section, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sectionFetchLimit)
	for i, p := range projects {
		g.Go(func() error {
			list, err := directory.Sections(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("failed to list sections of project %s: %w", p.Name, err)
			}
			sections[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	heading.Fprintln(a.out, "Колонки в проектах Todoist:")
	fmt.Fprintln(a.out, strings.Repeat("=", 60))
	for i, p := range projects {
		fmt.Fprintf(a.out, "\n📁 Проект: %s (ID: %s)\n", p.Name, p.ID)
		fmt.Fprintln(a.out, strings.Repeat("-", 40))
		a.printSections(sections[i])
	}
	return nil
}

func (a *app) printSections(sections []tasks.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(a.out, "  (Нет колонок - используется стандартный вид)")
		return
	}
	for i, s := range sections {
		fmt.Fprintf(a.out, "  %d. ID: %s | Название: %s | Порядок: %d\n", i+1, s.ID, s.Name, s.Order)
	}
}

func (a *app) runLookup(cmd *cobra.Command, args []string) error {
	directory, err := a.directory()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	projects, err := directory.Projects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	project, ok := resolver.FindProject(projects, args[0])
	if !ok {
		failure.Fprintf(a.out, "❌ Проект '%s' не найден\n", args[0])
		fmt.Fprintln(a.out, "\nДоступные проекты:")
		for _, p := range projects {
			fmt.Fprintf(a.out, "  - %s (ID: %s)\n", p.Name, p.ID)
		}
		return errNotFound
	}
	success.Fprintf(a.out, "✅ Проект найден: '%s' (ID: %s)\n", project.Name, project.ID)

	sections, err := directory.Sections(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to list sections of project %s: %w", project.Name, err)
	}

	if len(args) == 1 {
		fmt.Fprintln(a.out, "\n📋 Для .env файла:")
		fmt.Fprintf(a.out, "TODOIST_DEFAULT_PROJECT_ID=%s\n", project.ID)
		if len(sections) == 0 {
			fmt.Fprintln(a.out, "(В этом проекте нет секций - используется стандартный вид)")
			return nil
		}
		fmt.Fprintf(a.out, "\nДоступные секции в проекте '%s':\n", project.Name)
		a.listNames(sections)
		hint.Fprintln(a.out, "\nДля установки секции по умолчанию добавьте:")
		fmt.Fprintln(a.out, "TODOIST_DEFAULT_SECTION_ID=<ID_секции>")
		return nil
	}

	section, ok := resolver.FindSection(sections, args[1])
	if !ok {
		failure.Fprintf(a.out, "❌ Секция '%s' в проекте '%s' не найдена\n", args[1], project.Name)
		fmt.Fprintf(a.out, "\nДоступные секции в проекте '%s':\n", project.Name)
		if len(sections) == 0 {
			fmt.Fprintln(a.out, "  (Нет секций - используется стандартный вид)")
		}
		a.listNames(sections)
		return errNotFound
	}
	success.Fprintf(a.out, "✅ Секция найдена: '%s' (ID: %s)\n", section.Name, section.ID)

	fmt.Fprintln(a.out, "\n📋 Для .env файла:")
	fmt.Fprintf(a.out, "TODOIST_DEFAULT_PROJECT_ID=%s\n", project.ID)
	fmt.Fprintf(a.out, "TODOIST_DEFAULT_SECTION_ID=%s\n", section.ID)
	return nil
}

func (a *app) listNames(sections []tasks.Section) {
	for _, s := range sections {
		fmt.Fprintf(a.out, "  - %s (ID: %s)\n", s.Name, s.ID)
	}
}
