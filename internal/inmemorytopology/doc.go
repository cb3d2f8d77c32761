// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface. It suits single-machine runs where the
// whole workflow graph fits comfortably in memory.
package inmemorytopology
