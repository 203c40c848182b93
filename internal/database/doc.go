// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling and hand-written SQL. Repositories
// implement the domain interfaces: UserRepository, EventRepository,
// GroupRepository, SelectionRepository. The full DDL ships as the Schema
// constant; the service reads an already-provisioned database and never
// applies schema changes itself.
package database
