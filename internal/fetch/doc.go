// Package fetch provides the HTTP transport used to retrieve the page and
// its resources. It wraps net/http with the request defaults the mirror
// needs (user agent, per-host headers, body size cap) and normalizes every
// transport or HTTP failure into *fetch.Error so callers can report the
// failing URL without unpacking net/http internals.
//
// Design decision: The client exposes FetchText and FetchBytes rather than
// a raw Do method because those are the only two shapes the pipeline
// consumes: decoded UTF-8 document text for the transformer, and verbatim
// bytes for resource persistence. Charset detection lives here so the
// rest of the program only ever sees UTF-8.
package fetch
