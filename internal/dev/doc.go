// Package dev provides the development server and hot reload.
//
// The development server consists of several components:
//
//   - Watcher: reports file changes through fsnotify, batched per burst
//   - build.Builder: rebuilds the bundle incrementally in development mode
//   - ReloadHub: notifies browsers of changes via WebSocket
//   - Server: serves the mounted application and the bundles
//
// # Usage
//
//	srv, err := dev.NewServer(dev.ServerOptions{
//	    Config: cfg,
//	    App:    newApp,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// # Hot Reload Protocol
//
// The browser connects to /_scaffold/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload"}                // Triggers full page reload
//	{"type": "css", "file": "..."}    // A stylesheet changed
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
//
// A failed rebuild leaves the previous bundle in place and only reports the
// error.
package dev
