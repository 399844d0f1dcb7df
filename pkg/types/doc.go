// Package types defines the core data types for the toponimo linking engine.
//
// This package contains the fundamental types used throughout toponimo:
//   - Mention: A place-name span recognised in text
//   - Candidate/CandidateSet: Knowledge-base identifiers proposed for a mention
//   - Prediction: The final linking decision with its confidence distribution
//   - Sentence/Document: Input units for the pipeline and batch processing
//
// # The NIL sentinel
//
// Predictions whose identifier equals NIL mean "no suitable knowledge-base
// entry". A NIL prediction is a normal outcome, not an error.
//
// # Validation
//
// Input types provide Validate() methods for boundary checks:
//
//	m := &types.Mention{Text: "London", Start: 4, End: 10}
//	if err := m.Validate(); err != nil {
//	    // Handle validation error
//	}
//
// # JSON Serialization
//
// All types are designed to be JSON-serializable with appropriate struct tags.
package types
