package suggest

// Engine runs all registered rules against a Context and collects the
// resulting recommendations.
type Engine struct {
	rules []Rule
}

// NewEngine creates a new suggest engine with all built-in rules registered.
func NewEngine() *Engine {
	return &Engine{
		rules: []Rule{
			OptimalTime,
			WeekendReminder,
			ActivityBoost,
		},
	}
}

// Run executes all registered rules against the given context. Results are
// returned in rule order; no scoring or re-ranking is applied.
func (e *Engine) Run(ctx *Context) []Recommendation {
	all := []Recommendation{}
	for _, rule := range e.rules {
		all = append(all, rule(ctx)...)
	}
	return all
}
