// Package httpapi serves the chord chart store over HTTP and provides the
// matching client.
//
// Routes:
//
//	GET    /api/items/{itemID}/chord-charts
//	POST   /api/items/{itemID}/chord-charts
//	PUT    /api/items/{itemID}/chord-charts/order
//	PUT    /api/chord-charts/{id}
//	DELETE /api/chord-charts/{id}
//	GET    /api/chord-charts/common/search?name=
//	POST   /api/chord-charts/copy
//
// A record on the wire is the canonical diagram object with id, itemId,
// order and createdAt merged in. Request bodies may use any finger encoding
// the diagram decoder accepts; responses are always canonical.
//
// The client turns 429 and 503 responses into *retry.RateLimitError so the
// autofill resolver backs off on them.
package httpapi
