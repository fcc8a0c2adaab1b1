// SPDX-License-Identifier: MIT

// Package document parses experiment configuration documents and resolves
// anchor/alias value reuse into an immutable, fully-expanded tree.
//
// An alias site always receives an independent deep copy of the anchored
// value. Resolution is all-or-nothing: a malformed document, a dangling
// alias or a duplicate mapping key fails the whole load and no partial
// document is ever returned.
package document
