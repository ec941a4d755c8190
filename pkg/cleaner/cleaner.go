// Package cleaner transforms rendered page markup before it is
// persisted. The Markdown cleaner converts HTML snapshots to readable
// Markdown; the noop cleaner stores markup verbatim.
package cleaner

// Cleaner transforms rendered markup into the form written to disk.
type Cleaner interface {
	// Clean transforms the input markup.
	// The output format depends on the implementation.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging.
	Name() string
}
