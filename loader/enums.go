package loader

// Kind of at-rule scope declarations are grouped by.
// ENUM(none, media, document, font)
type GroupKind int
