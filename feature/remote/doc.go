// Package remote implements the fetch side of feed synchronization.
//
// A Fetcher returns one page of decoded entities for a cursor. Three backends
// are provided: the Twitter v2 API (NewTwitter), the legacy Twitter v1.1 API
// (NewTwitterLegacy) and Mastodon-compatible servers (NewMastodon).
//
// Every failure is reported as *Error with a Kind that the pagination layer
// maps to a retry policy:
//
//	page, err := f.Fetch(ctx, remote.Cursor{}, 20)
//	switch remote.KindOf(err) {
//	case remote.KindRateLimited:
//	    // back off or switch to the fallback endpoint
//	case remote.KindDecode:
//	    // skip the page
//	}
//
// Entities inside a page decode independently; a malformed item is reported in
// Page.Dropped and its siblings are still returned.
package remote
