// Package client contains the remote boundaries of the cookiecutter client.
//
// # Overview
//
//  1. Generator (see GeneratorClient): POST {base}/generate with a multipart
//     body (file + options_str) built by package recipe; a 2xx answer
//     carries the binary STL. Calls can be rate limited client-side.
//  2. Identity (see IdentityClient): credential exchange, password login
//     and the password recovery endpoints, JSON in and out.
//
// # Error Handling
//
// Non-2xx answers become *APIError carrying the server's "detail" text.
// APIError unwraps to ErrUnauthorized for 401/403 and to ErrUnavailable for
// 5xx; transport failures wrap ErrUnavailable. Context cancellation is
// returned as is.
//
// Both clients are safe for concurrent use.
package client
