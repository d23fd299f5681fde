package config

// Specification of stylesheet output layout.
// ENUM(flat, split)
type Layout int

// Split reports whether every media group goes to its own file.
func (l Layout) Split() bool {
	return l == LayoutSplit
}
