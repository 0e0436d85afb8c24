// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: shared ID, timestamp, version and tenant columns
//   - project.go: projects and their bill of quantities lines
//   - progress_payment.go: progress payments and per-line details
//   - finance.go: sales invoices, account receivables, exchange rates
//   - outbox.go: outbox rows for event delivery
package models
