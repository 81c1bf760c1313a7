package planner

import "github.com/google/uuid"

// newRunID returns a fresh correlation id for one planning run, shared
// by every DeliveryPlan that run produces, mirroring the teacher's dual
// id style: a serial primary key assigned by the store plus a uuid
// correlation id for tracing repeated runs.
func newRunID() string {
	return uuid.NewString()
}
