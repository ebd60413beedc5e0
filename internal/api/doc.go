// Package api exposes the image queue, batch lifecycle, single-image
// edit session, and prompt tooling over HTTP. Handlers validate and
// decode requests, delegate to the internal services, and translate
// their sentinel errors into status codes.
package api
