// Package server runs the local HTTP endpoint that receives the OAuth authorization callback.
//
// # Router
//
// [BasicRouter] is a thin layer over [http.ServeMux] method patterns with a [Middleware] stack;
// the first middleware added is the outermost. [Logging] writes one structured line per request.
//
// # Callback
//
// [OAuthHandler] accepts a single callback: it checks the state parameter against the one the
// login started with, then hands the code to an [Exchanger] (the auth store). Any second request is
// rejected. [CallbackServer] binds a listener, serves the handler and lets the caller wait for the
// outcome with a deadline.
package server
