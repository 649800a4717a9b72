// Package async provides utilities for parallel task execution with
// per-task error collection.
//
// [RunAll] executes tasks concurrently, optionally bounded, and reports one
// [Result] per task without letting one failure cancel its siblings.
// [RunParallel] is the convenience form that joins all failures into one
// error. They back the launch fan-out and shared-resource preparation.
package async
