// Package shell is the application shell: it owns the root application
// instance, attaches a router and mounts rendered pages into the host
// document.
//
// An App is created from a Config and mounted exactly once:
//
//	app, err := shell.New(shell.Config{
//	    Router: r,
//	    Assets: assets.NewResolver(manifest, "/"),
//	})
//	if err != nil {
//	    return err
//	}
//	h, err := app.Mount()
//	if err != nil {
//	    return err
//	}
//	http.ListenAndServe(":8080", h)
//
// # Request Handling
//
// The mounted handler serves, in order:
//
//  1. Files from the static file system (bundles, images, favicon).
//  2. 405 for methods other than GET and HEAD.
//  3. A 308 redirect when the path is not canonical ("/trade/" → "/trade").
//  4. The matched page, or the not-found page with status 404.
//
// # Client-Side Navigation
//
// Requests carrying the header "X-Scaffold-Navigate: 1" receive a JSON
// Fragment instead of a full document. The browser router swaps
// Fragment.HTML into the mount point and pushes Fragment.Path onto the
// history stack.
//
// # Prerendering
//
// Prerender renders every route to a standalone document so the build output
// can be hosted without a Go server.
package shell
