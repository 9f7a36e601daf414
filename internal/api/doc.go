// Package api contains the HTTP handlers, request/response models, and
// error mapping for the REST API. Handlers stay thin: they decode and
// validate requests, call a service, and translate errors to status codes.
package api
