// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - audit.go: audit trail records
// - document.go: definitions, documents, resources, sequences, search fields
// - form.go: form definitions and form associations
// - process_document.go: process-document links and instances
// - milestone.go: milestones and milestone sets
// - view_config.go: view configurations
// - notification.go: e-mail notification settings
//
// JSON columns are declared as jsonb; sqlite accepts the type name and stores text.
package models
