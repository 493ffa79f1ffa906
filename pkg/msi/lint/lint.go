// Package lint checks the cross table integrity of an installer
// package. Rules never stop the run: every problem found, including a
// rule failing outright, is reported as a Diagnostic.
package lint

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/kolide/livraison/pkg/msidb"
	"go.opencensus.io/trace"
	"golang.org/x/exp/slices"
)

const (
	CodeTableRead = "table-read"
	CodeRuleError = "rule-error"
)

type Diagnostic struct {
	Code    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Rule is a single check over the loaded package.
type Rule interface {
	Code() string
	Run(ctx context.Context, data *Data) ([]Diagnostic, error)
}

type Linter struct {
	rules []Rule
}

// New returns a linter running rules in order.
func New(rules ...Rule) *Linter {
	return &Linter{rules: rules}
}

// Default returns a linter with every built-in rule registered.
func Default() *Linter {
	return New(
		PrimaryKeysRule{},
		ForeignKeyRule{},
		PropertyRule{},
		DialogRule{},
		ControlEventRefRule{},
	)
}

func (l *Linter) Register(r Rule) {
	l.rules = append(l.rules, r)
}

func (l *Linter) Rules() []Rule {
	return append([]Rule(nil), l.rules...)
}

// Run loads pkg and runs every rule against it.
func (l *Linter) Run(ctx context.Context, pkg msidb.Package) Report {
	ctx, span := trace.StartSpan(ctx, "lint.Run")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	data, diagnostics := Load(ctx, pkg)
	for _, rule := range l.rules {
		found, err := rule.Run(ctx, data)
		for _, d := range found {
			d.Code = rule.Code()
			diagnostics = append(diagnostics, d)
		}
		if err != nil {
			diagnostics = append(diagnostics, Diagnostic{
				Code:    CodeRuleError,
				Message: fmt.Sprintf("rule %s failed: %s", rule.Code(), err),
			})
		}

		level.Debug(logger).Log(
			"msg", "ran lint rule",
			"rule", rule.Code(),
			"diagnostics", len(found),
			"err", err,
		)
	}

	return newReport(diagnostics)
}

// Report holds diagnostics ordered by code, then message.
type Report struct {
	Diagnostics []Diagnostic
}

func newReport(diagnostics []Diagnostic) Report {
	slices.SortStableFunc(diagnostics, func(a, b Diagnostic) bool {
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
	return Report{Diagnostics: diagnostics}
}

func (r Report) OK() bool { return len(r.Diagnostics) == 0 }

func (r Report) Len() int { return len(r.Diagnostics) }

// Suppress drops the diagnostics carrying any of codes.
func (r Report) Suppress(codes ...string) Report {
	if len(codes) == 0 {
		return r
	}
	skip := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		skip[c] = struct{}{}
	}

	var kept []Diagnostic
	for _, d := range r.Diagnostics {
		if _, ok := skip[d.Code]; !ok {
			kept = append(kept, d)
		}
	}
	return Report{Diagnostics: kept}
}

func errorf(format string, args ...interface{}) Diagnostic {
	return Diagnostic{Message: fmt.Sprintf(format, args...)}
}
