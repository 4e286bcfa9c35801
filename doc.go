// Package agroi18n provides the offline-capable localization layer for the
// AgroShield plant-disease scanner.
//
// Translated UI strings and long-form disease descriptions are served through
// a two-tier cache: a structured on-device store (see the store package) keyed
// by language and disease identifier, and an HTTP edge cache (see the edge
// package) keyed by request URL. The Loader resolves translation bundles and
// the Resolver resolves per-disease descriptions; both consult the store
// first and fall back to the network, writing fetched content back for the
// next offline session.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/agroshield/agroi18n"
//	    "github.com/agroshield/agroi18n/store"
//	)
//
//	func main() {
//	    s, err := store.OpenSQLite("/var/lib/agroshield/i18n.db")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer s.Close()
//
//	    loader := agroi18n.NewLoader(
//	        agroi18n.WithBaseURL("https://api.agroshield.example"),
//	        agroi18n.WithStore(s),
//	    )
//
//	    loader.Load(context.Background(), "hi")
//	    fmt.Println(loader.T("app_title")) // एग्रोशील्ड
//	}
package agroi18n
