// Package cmdb provides the client for the remote configuration-management
// record store.
//
// The Client interface covers the six operations the sync engine consumes:
// exact-name search, create, update, type-filtered listing, bulk
// relationship submission, and job status retrieval. The HTTP
// implementation handles authentication, page/limit/total pagination, and
// bounded retry with backoff on rate-limit and server errors; other 4xx
// responses surface immediately without retry.
//
// # Client Interface
//
// The interface keeps the vendor API mockable for unit testing (see
// core/cmdb/mocks).
//
// # Usage
//
//	client, err := cmdb.NewHTTPClient(cfg)
//	rec, err := client.Search(ctx, state.KindAsset, "web01")
package cmdb
