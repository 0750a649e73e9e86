// Package caplena contains the core building blocks of the Caplena API
// client: the request builder and dispatcher, the transport contract, the
// schema-driven resource object model, and the lazy page iterator.
//
// The package is resource-agnostic. Endpoint controllers (such as
// ProjectsController) are thin layers over BaseController that declare their
// resource schemas and paths; everything else — URI construction, reserved
// protocol headers, status-code classification, JSON materialization,
// controller back-references, and cursor pagination — is handled here.
//
// Most users should construct a client through
// github.com/caplena/caplena-go/pkg/caplenaclient rather than wiring a
// Transport manually:
//
//	client, err := caplenaclient.New(&caplena.Config{APIKey: "cpl_..."})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	project, err := client.Projects().Retrieve(ctx, "pj_1234")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	it := client.Projects().List(ctx, 50)
//	for it.HasNext() {
//		p, err := it.Next()
//		if errors.Is(err, caplena.ErrNoMoreItems) {
//			break
//		}
//		...
//	}
//
// Objects materialized from API responses are partially mutable: only fields
// declared mutable in their schema can be reassigned, and every local write
// is recorded in the object's dirty set so update calls can persist exactly
// what changed.
package caplena
