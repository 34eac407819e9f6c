// Package api exposes the balance and account services over HTTP. Handlers
// decode and validate JSON requests, call the services and map business rule
// violations to status codes, returning the stable error code to clients.
package api
