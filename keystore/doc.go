/*
Package keystore keeps the verification keys published by an identity
provider in memory and re-downloads the JWKS document on demand.

Lookups by key id are served from an in-memory map. A miss triggers a
refresh only when the last successful refresh is older than the minimum
refresh interval, which bounds how often a caller presenting unknown key ids
can make the service contact the provider:

	store, err := keystore.New(
	    keystore.WithJWKSURI(jwksURI),
	    keystore.WithMinRefreshInterval(15*time.Minute),
	)
	if err != nil {
	    log.Fatal(err)
	}

	key, err := store.Resolve(ctx, "key-id")

The store starts empty, so the first lookup always fetches. Each successful
refresh replaces the whole map. A failed refresh leaves both the map and the
refresh timestamp untouched, so the next miss tries again.

Entries that cannot be used for signature verification are dropped while
building the map: entries with no kid, symmetric (oct) keys, keys published
for encryption and keys jwx cannot parse.
*/
package keystore
