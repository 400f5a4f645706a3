// Package network provides the sensor nodes a mobile charger serves.
//
// Sensors integrate their energy lazily: every charger callback first brings
// the node up to the current virtual time, then changes the set of chargers
// feeding it. Power received from several chargers adds up.
package network
