// Package bookmarks converts between the pdftk bookmark dump format and an
// ordered tree of titled, page-pointing nodes.
//
// A dump is a flat sequence of records, each introduced by a BookmarkBegin
// line and followed by "Key: value" lines. Nesting is expressed only through
// BookmarkLevel; Parse rebuilds the tree with a stack of open ancestors and
// Serialize writes it back out in pre-order.
package bookmarks
