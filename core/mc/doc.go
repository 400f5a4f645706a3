// Package mc models a Mobile Charger: a vehicle that travels across a
// wireless rechargeable sensor network and transfers energy to the sensor
// nodes around it.
//
// The charger's activities are time-stepped processes for package sim:
// Move, Charge and Recharge each run in slices of at most MaxSlice units of
// virtual time, further bounded by the energy left above the safety
// threshold. Operate is the dispatch controller that validates a requested
// action against an energy estimate and sequences the processes.
//
// The charger holds no reference to the network or the scheduler: both are
// passed to the operations that need them.
package mc
