package viewer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
)

// Template names understood by the readme viewer.
const (
	TemplateOverall  = "overall"
	TemplateYear     = "year"
	TemplateLanguage = "language"
)

var placeholder = regexp.MustCompile(`#\{\((\w+?)\)\}`)

// Readme writes README.md files at the repository root, per year and per
// year/language from the answers log.
type Readme struct {
	root          string
	templatePaths map[string]string
	runtimes      *record.RuntimeLog
	git           gitFunc
}

type readmeOptions struct {
	TemplatePaths map[string]string `yaml:"template_paths"`
}

// NewReadme creates a readme viewer writing under root. runtimes may be nil,
// in which case runtime tables render empty.
func NewReadme(root string, runtimes *record.RuntimeLog) *Readme {
	return &Readme{root: root, runtimes: runtimes, templatePaths: make(map[string]string), git: runGit}
}

func (r *Readme) Name() string { return "readme" }

func (r *Readme) Handlers() map[string]record.Handler {
	return map[string]record.Handler{"write": r.Write}
}

// Configure accepts template_paths.
func (r *Readme) Configure(options []byte) error {
	var o readmeOptions
	if err := decodeStrict(options, &o); err != nil {
		return err
	}
	return r.SetTemplatePaths(o.TemplatePaths)
}

// SetTemplatePaths overrides built-in templates. Relative paths resolve
// against the root.
func (r *Readme) SetTemplatePaths(paths map[string]string) error {
	for name, p := range paths {
		switch name {
		case TemplateOverall, TemplateYear, TemplateLanguage:
		default:
			return fmt.Errorf("unknown readme template %q", name)
		}
		r.templatePaths[name] = p
	}
	return nil
}

func (r *Readme) template(name string) (string, error) {
	p, ok := r.templatePaths[name]
	if !ok {
		data, err := assets.ReadFile("templates/" + name + ".md")
		return string(data), err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("load %s template: %w", name, err)
	}
	return string(data), nil
}

type valueFunc func(ctx context.Context) (string, error)

func constant(s string) valueFunc {
	return func(context.Context) (string, error) { return s, nil }
}

// Fill replaces every #{(name)} in tmpl with the matching value. A
// placeholder without a value is an error.
func Fill(ctx context.Context, tmpl string, values map[string]valueFunc) (string, error) {
	var ferr error
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if ferr != nil {
			return m
		}
		name := placeholder.FindStringSubmatch(m)[1]
		fn, ok := values[name]
		if !ok {
			ferr = fmt.Errorf("no way to fill template key %q", name)
			return m
		}
		v, err := fn(ctx)
		if err != nil {
			ferr = fmt.Errorf("template key %q: %w", name, err)
			return m
		}
		return v
	})
	return out, ferr
}

// Stars computes per-year, per-language star counts from answers and the
// year star count (best language, 49 counted as 50 since the last star is
// free once every other is earned).
func Stars(answers *record.AnswerLog) (perLang map[int]map[string]int, perYear map[int]int, total int) {
	perLang = make(map[int]map[string]int)
	for _, e := range answers.Entries() {
		if perLang[e.Key.Year] == nil {
			perLang[e.Key.Year] = make(map[string]int)
		}
		perLang[e.Key.Year][e.Key.Lang] = 0
	}
	perYear = make(map[int]int)
	for y, langs := range perLang {
		best := 0
		for l := range langs {
			n := answers.Stars(l, y)
			langs[l] = n
			best = max(best, n)
		}
		if best == 2*calendar.DaysPerYear-1 {
			best++
		}
		perYear[y] = best
		total += best
	}
	return perLang, perYear, total
}

// Write renders every README from the answers log in n.Source.
func (r *Readme) Write(ctx context.Context, n record.Notice) error {
	answers, ok := n.Source.(*record.AnswerLog)
	if !ok {
		return fmt.Errorf("readme viewer needs the answers log, got %T", n.Source)
	}
	perLang, perYear, total := Stars(answers)

	common := map[string]valueFunc{
		"total_stars":  constant(strconv.Itoa(total)),
		"git_username": func(ctx context.Context) (string, error) { return gitUsername(ctx, r.git, r.root) },
		"submod_repos": func(ctx context.Context) (string, error) { return submoduleRepos(ctx, r.git, r.root) },
	}
	with := func(extra map[string]valueFunc) map[string]valueFunc {
		out := make(map[string]valueFunc, len(common)+len(extra))
		for k, v := range common {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	answerTables := tablesByName(answers.Tables(false))
	var runtimeTables map[string]*table.Table
	if r.runtimes != nil {
		runtimeTables = tablesByName(r.runtimes.Tables(false))
	}

	years := make([]int, 0, len(perLang))
	for y := range perLang {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		ys := strconv.Itoa(y)
		langs := sortedKeys(perLang[y])
		for _, l := range langs {
			title := record.Title(l)
			values := with(map[string]valueFunc{
				"year":          constant(ys),
				"lang":          constant(l),
				"lang_title":    constant(title),
				"stars":         constant(strconv.Itoa(perLang[y][l])),
				"year_stars":    constant(strconv.Itoa(perYear[y])),
				"answer_table":  constant(markdownOf(answerTables[ys], title)),
				"runtime_table": constant(markdownOf(runtimeTables[ys], title)),
			})
			if err := r.render(ctx, TemplateLanguage, filepath.Join(r.root, ys, l, "README.md"), values); err != nil {
				return err
			}
		}

		values := with(map[string]valueFunc{
			"year":          constant(ys),
			"year_stars":    constant(strconv.Itoa(perYear[y])),
			"answer_table":  constant(markdownOf(answerTables[ys])),
			"runtime_table": constant(markdownOf(runtimeTables[ys])),
		})
		if err := r.render(ctx, TemplateYear, filepath.Join(r.root, ys, "README.md"), values); err != nil {
			return err
		}
	}

	values := with(map[string]valueFunc{
		"answer_table":  constant(markdownOf(starsTable(perLang, perYear))),
		"runtime_table": constant(markdownOf(r.totalsTable())),
	})
	return r.render(ctx, TemplateOverall, filepath.Join(r.root, "README.md"), values)
}

func (r *Readme) render(ctx context.Context, name, path string, values map[string]valueFunc) error {
	tmpl, err := r.template(name)
	if err != nil {
		return err
	}
	out, err := Fill(ctx, tmpl, values)
	if err != nil {
		return fmt.Errorf("%s README %s: %w", name, path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("readme written")
	return nil
}

// starsTable lists stars per year and language.
func starsTable(perLang map[int]map[string]int, perYear map[int]int) *table.Table {
	t := &table.Table{Name: "Stars", Index: []string{"Year"}}
	for y, langs := range perLang {
		ys := strconv.Itoa(y)
		for l, n := range langs {
			t.Set(record.Title(l), n, ys)
		}
		t.Set("Total", perYear[y], ys)
	}
	sortColumns(t, "Total")
	t.SortRows()
	return t
}

// totalsTable lists the total runtime per year and language.
func (r *Readme) totalsTable() *table.Table {
	if r.runtimes == nil {
		return nil
	}
	t := &table.Table{Name: "Runtimes", Index: []string{"Year"}}
	for _, y := range r.runtimes.Years() {
		for _, l := range r.runtimes.Languages() {
			if st := r.runtimes.Year(l, y); st.Days > 0 {
				t.Set(record.Title(l), st.Total, strconv.Itoa(y))
			}
		}
	}
	t.SortRows()
	return t
}

func tablesByName(tables []*table.Table) map[string]*table.Table {
	out := make(map[string]*table.Table, len(tables))
	for _, t := range tables {
		out[t.Name] = t
	}
	return out
}

// markdownOf renders t, optionally restricted to cols. Nil or empty tables
// render as an empty string.
func markdownOf(t *table.Table, cols ...string) string {
	if t == nil {
		return ""
	}
	if len(cols) > 0 {
		t = t.Only(cols...)
	}
	if t.Empty() {
		return ""
	}
	return table.Markdown(t)
}

// sortColumns orders value columns by name, keeping last at the end.
func sortColumns(t *table.Table, last string) {
	sort.SliceStable(t.Columns, func(i, j int) bool {
		a, b := t.Columns[i], t.Columns[j]
		if a == last || b == last {
			return b == last && a != last
		}
		return a < b
	})
}
