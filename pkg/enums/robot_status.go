package enums

// RobotStatus is the activation state reported by the simulated robot panel.
type RobotStatus string

const (
	RobotStatusActive   RobotStatus = "active"
	RobotStatusInactive RobotStatus = "inactive"
)

// String implements fmt.Stringer.
func (r RobotStatus) String() string {
	return string(r)
}
