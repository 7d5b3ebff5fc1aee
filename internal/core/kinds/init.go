// Package kinds registers the student, teacher and grade import templates
// with the core registry. Import it for its side effects.
package kinds

// Each kind file registers itself from init().
