// SPDX-License-Identifier: MPL-2.0

// Package tree defines the declarative command tree: scopes, operations,
// argument descriptors, parameter scopes and external links.
//
// A tree is assembled with the fluent builder API (NewScope, NewOp, Arg) or
// loaded from a declaration file by package treefile. Build normalizes the
// tree (paths, parameter scope synthesis, ancestor back-references) and then
// validates every structural invariant, returning all problems at once as
// ValidationErrors. A built tree is immutable; the schema and dispatch
// compilers only read it.
//
//	root, err := tree.NewScope("app").
//		Op(tree.NewOp("greet").Args(tree.Arg("name").Default("world"))).
//		Child(tree.NewScope("admin").
//			Field(tree.Arg("user")).
//			Op(tree.NewOp("ban").WantsScope().Args(tree.Arg("reason").Optional()))).
//		Build()
package tree
