// Package reconcile merges the device cache and server views of an entry and
// drives access to protected entries.
package reconcile

import "github.com/abdul-hamid-achik/clipshare/internal/store"

// Source identifies which side an entry was resolved from.
type Source int

const (
	SourceNone   Source = iota // neither side has the entry
	SourceLocal                // the device cache copy won
	SourceRemote               // the server copy won
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// Resolve picks the entry to show when local and remote views may differ.
// The greater lastModified wins and a tie goes to remote. Either argument
// may be nil.
//
// Resolve never pushes local state anywhere; a caller that gets SourceRemote
// writes the result into the device cache.
func Resolve(local, remote *store.Entry) (*store.Entry, Source) {
	switch {
	case local == nil && remote == nil:
		return nil, SourceNone
	case local == nil:
		return remote, SourceRemote
	case remote == nil:
		return local, SourceLocal
	case local.LastModified > remote.LastModified:
		return local, SourceLocal
	default:
		return remote, SourceRemote
	}
}
