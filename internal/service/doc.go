// Package service provides application-level services for managing studies,
// results, insights, and researcher accounts. Services own transaction
// boundaries and business rules; stores own persistence.
package service
