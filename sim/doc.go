// Package sim provides the core discrete-event kernel of the offloading
// simulator: mobile devices, edge and cloud servers, and the events that
// move tasks between them.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - job.go: Job, Task and TaskOption (the cost profile of one placement)
//   - event.go: the closed event catalog and its single dispatch switch
//   - device.go: the device actor, its private event stream and the event effects
//   - server.go: the server backlog and its O(1) load aggregates
//
// # Architecture
//
// The sim package defines the kernel; orchestration and inputs live in
// sub-packages:
//   - sim/dynamic/: multi-device engine (stream merge, guards, lifecycle)
//   - sim/workload/: value sources (uniform, exponential, categorical samplers)
//   - sim/trace/: event and routing decision recording
//
// # Key Interfaces
//
// The extension points are two small interfaces:
//   - SequencingRule: which pending option a resource serves next
//   - RoutingRule: which device or server executes a ready task
//
// Both are created by name through NewSequencingRule and NewRoutingRule.
package sim
