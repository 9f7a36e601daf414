// Package postgres provides PostgreSQL implementations of the store
// interfaces. All stores accept a store.DBTX so they run equally against a
// connection pool or a transaction, and they map driver errors onto the
// store package's error taxonomy.
package postgres
