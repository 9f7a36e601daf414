// Package events provides a minimal in-process event bus used to decouple
// services from background task creation. Services emit task request events
// without importing the task package, which keeps the dependency graph
// acyclic.
package events
