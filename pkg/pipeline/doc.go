// Package pipeline drives a model through the three execution stages of a
// training session: fit, test and predict.
//
// A Runner owns a model, an execution engine and an append-only run-status
// record. Run sets up the stage's datasets through the datamodule, hands
// the matching loaders to the engine entrypoint and blocks until it
// returns. Every run is recorded with its stage, start time, duration and
// outcome; failures are recorded and then propagated to the caller rather
// than suppressed, so retrying is always the caller's decision.
//
// The engine is an external collaborator consumed through a narrow
// contract. This package does not know about epochs, gradients or devices;
// it only guarantees that a stage sees exactly the dataset splits it needs
// and that its outcome ends up in the record.
package pipeline
