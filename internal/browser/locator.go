package browser

import (
	"fmt"

	"github.com/chromedp/chromedp"
)

// By identifies how a Locator finds an element.
type By int

const (
	// ByName matches an input by its name attribute.
	ByName By = iota
	// ByID matches any element by id.
	ByID
	// ByCSS uses the value as a raw CSS selector.
	ByCSS
	// ByPlaceholder matches an input by its placeholder text.
	ByPlaceholder
	// ByButtonText matches a button whose text contains the value.
	ByButtonText
	// ByInputValue matches an input whose value attribute equals the value.
	ByInputValue
)

// Locator describes one strategy for finding a form element. Login
// form discovery walks an ordered list of these; the first locator
// that yields an element wins.
type Locator struct {
	By    By
	Value string
}

// query maps the locator onto a selector plus the chromedp query kind
// that understands it. Button-text and input-value lookups need XPath,
// everything else stays CSS.
func (l Locator) query() (string, chromedp.QueryOption) {
	switch l.By {
	case ByName:
		return fmt.Sprintf(`input[name=%q]`, l.Value), chromedp.ByQuery
	case ByID:
		return "#" + l.Value, chromedp.ByQuery
	case ByPlaceholder:
		return fmt.Sprintf(`input[placeholder=%q]`, l.Value), chromedp.ByQuery
	case ByButtonText:
		return fmt.Sprintf(`//button[contains(text(), %q)]`, l.Value), chromedp.BySearch
	case ByInputValue:
		return fmt.Sprintf(`//input[@value=%q]`, l.Value), chromedp.BySearch
	default:
		return l.Value, chromedp.ByQuery
	}
}

func (l Locator) String() string {
	switch l.By {
	case ByName:
		return "name=" + l.Value
	case ByID:
		return "id=" + l.Value
	case ByPlaceholder:
		return "placeholder=" + l.Value
	case ByButtonText:
		return "button-text=" + l.Value
	case ByInputValue:
		return "input-value=" + l.Value
	default:
		return "css=" + l.Value
	}
}
