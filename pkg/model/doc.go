// Package model defines the form document types shared by the field registry,
// the renderers, and the document store. A Form owns an ordered list of Field
// values; each Field carries an immutable id and type tag plus a mutable label
// and a type-specific Meta bag. Updates are expressed as UpdateField messages
// carrying a Patch so that renderers and configuration panels never touch the
// document directly. Patch semantics are merge-per-key: keys not named in the
// patch survive, repeated patches are idempotent, and a label-only patch
// leaves Meta untouched.
package model
