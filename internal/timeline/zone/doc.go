// Package zone defines zone identifiers, the association between a descriptor
// and one or more zones, and the canonical zone-name registry.
package zone
