// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling with a query tracer feeding Prometheus.
// Repositories implement the domain read/write interfaces: GolferRepository,
// TeeTimeRepository, NotificationRepository. The schema lives in schema.sql.
package database
