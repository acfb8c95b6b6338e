// Package core provides the type inference and reconciliation logic.
//
// This package is the heart of the service, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Dataset: named columns of cell text loaded from CSV or a database.
//   - Classifier: an external type model assigning one [ClassifierCode] per column.
//   - DefaultInferrer: the baseline raw and special type inference.
//   - Engine: reconciles classifier codes with the baseline into [FeatureMetadata].
//   - Service: runs inferences under a concurrency limit and records them.
//
// # Reconciliation
//
// Raw types follow the classifier code:
//
//	categorical              bool if the baseline says bool, else category
//	datetime                 datetime
//	sentence, url, numbers,
//	list, not-generalizable,
//	custom-object            object
//	numeric, anything else   baseline raw type
//
// Special types are carried over from the baseline, except that sentence
// columns are always tagged text.
//
// # Classifier Registry
//
// Backends are registered at init time using [Register]:
//
//	core.Register(core.BackendDefinition{
//	    Info: core.BackendInfo{Name: "remote", Description: "HTTP model server"},
//	    New:  newRemote,
//	})
//
// The standard backends wrap a [Model] in a [ModelClassifier], which profiles
// each column, fills undefined statistics with zero and asks the model for codes.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DATA001-DATA008: Dataset errors (empty, malformed, oversized, duplicates)
//   - CLS001-CLS003: Classifier errors (unknown backend, code count mismatch, failure)
//   - INF001-INF004: Service errors (busy, cancelled, timeout, rate limited)
//   - RUN001: Run history lookups
package core
