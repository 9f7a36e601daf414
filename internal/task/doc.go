// Package task manages background job queuing, processing, and lifecycle.
// It provides asynchronous execution of long-running operations, such as
// generating insight summaries for a study, so they don't block HTTP request
// handling and can recover from application restarts.
package task
