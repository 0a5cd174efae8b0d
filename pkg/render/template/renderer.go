package template

// Evaluator renders template text against a flat variable mapping.
//
// Register parses text under name and reports syntax errors. Render executes
// a previously registered template. Evaluate is the atomic register+render
// step used by every caller in this module; implementations must treat a
// repeated name as a replacement.
type Evaluator interface {
	Register(name, text string) error
	Render(name string, data map[string]any) (string, error)
	Evaluate(name, text string, data map[string]any) (string, error)
}
