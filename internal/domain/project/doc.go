// Package project holds the Project aggregate and its bill of quantities (BoQ).
//
// BoQ lines live in a flat per-project collection. Nesting is expressed through
// ParentID references into that collection; a BoQTree is an index built over the
// flat slice and never owns lines itself.
package project
