// SPDX-License-Identifier: MPL-2.0

// Package link resolves external links between units.
//
// A Registry loads unit declarations (registered in-process or read through
// a Loader), orders them so every unit is compiled after the units it links
// to, rejects link cycles, and keeps each compiled unit for reuse. It is
// also the dispatch.Forwarder of every unit it compiles: a selected link
// re-enters the linked unit's parser and dispatcher with the remaining
// tokens and the linking scope's value as ancestor.
package link
