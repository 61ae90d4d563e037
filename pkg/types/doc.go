// Package types defines the Account entity, field and sort vocabulary,
// draft edits, the display column contract, backend configuration, the
// capability interfaces a listing depends on, and the standard error
// values shared by every backend.
package types
