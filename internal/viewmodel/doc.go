// Package viewmodel derives presentation state from poller snapshots.
//
// Everything here is a pure function of its inputs: light-group
// aggregation, resource percentages and partitions, weather condition
// mapping, Pi-hole ratios and printer status. Builders are recomputed on
// every publish and never fetch or persist anything.
package viewmodel
