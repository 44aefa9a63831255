// Package qobuz implements the Qobuz catalog client and the
// catalog-level helpers around it.
//
// The download engine consumes the Catalog interface, which resolves
// track stream descriptors and fetches album, artist, label and
// playlist metadata. Client is the HTTP implementation against the
// Qobuz JSON API; tests substitute their own Catalog.
//
// The package also hosts SmartFilter, the discography-pruning
// heuristic applied to artist and label browses before dispatch.
package qobuz
