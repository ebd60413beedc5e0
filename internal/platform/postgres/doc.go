// Package postgres provides the PostgreSQL implementation of the
// key-value persistence interface defined in the internal/store package.
// It handles connection details, query execution, and error mapping.
package postgres
