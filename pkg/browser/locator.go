package browser

import "strings"

// Strategy selects how a Locator is resolved against the DOM.
type Strategy int

const (
	// StrategyID matches the element whose id attribute equals Value.
	StrategyID Strategy = iota
	// StrategyXPath evaluates Value as an XPath 1.0 expression.
	StrategyXPath
)

// Locator identifies an element on the current page.
type Locator struct {
	By    Strategy
	Value string
}

// ByID returns a Locator matching id="<id>".
func ByID(id string) Locator {
	return Locator{By: StrategyID, Value: id}
}

// ByXPath returns a Locator evaluating expr.
func ByXPath(expr string) Locator {
	return Locator{By: StrategyXPath, Value: expr}
}

// String renders the locator for logs and error resources.
func (l Locator) String() string {
	switch l.By {
	case StrategyID:
		return "id=" + l.Value
	case StrategyXPath:
		return "xpath=" + l.Value
	default:
		return "unknown=" + l.Value
	}
}

// css returns the CSS selector for an id locator. Attribute form avoids
// escaping ids that are not valid CSS identifiers.
func (l Locator) css() string {
	return `[id="` + strings.ReplaceAll(l.Value, `"`, `\"`) + `"]`
}
