package logging

const (
	// FieldComponent names the package or subsystem emitting the line.
	FieldComponent = "component"
	// FieldRunID identifies one merge invocation.
	FieldRunID = "run_id"
	// FieldArchive is the archive path an item came from.
	FieldArchive = "archive"
	// FieldEntry is the archive member name being processed.
	FieldEntry = "entry"
	// FieldHash is the hex content digest of an item.
	FieldHash = "hash"
	// FieldOutput is the destination path of a written item.
	FieldOutput = "output"
	// FieldEventType classifies a line for filtering (e.g. "pair_skipped").
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags anomalies that should stand out.
	FieldAlert = "alert"
)
