// Package listing implements the in-memory account listing: the view
// state store, the filter and sort engine, and the edit reconciler.
//
// Data flow:
//
//	[AccountSource] --Load--> Store.all --filter/sort--> Store.visible
//	                                                       |
//	                              Subscribe(func(View)) <--+
//	StageEdit --> pending --Commit--> [RecordUpdater] x N --> Load
//
// The visible rows are always a pure function of the loaded records, the
// search term, and the active sort. They are never edited directly.
package listing
