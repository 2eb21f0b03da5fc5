// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService = "service"
	FieldVersion = "version"
	FieldSession = "session"
	FieldRunID   = "run_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Portal protocol fields
	FieldPortal   = "portal"
	FieldAction   = "action"
	FieldPage     = "page"
	FieldStatus   = "status"
	FieldAttempt  = "attempt"
	FieldItems    = "items"
	FieldTotal    = "total"
	FieldPageSize = "max_page_items"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Cache / artifact fields
	FieldArtifact = "artifact"
	FieldSource   = "source"
	FieldAge      = "age"
	FieldPath     = "path"
)
