package dial

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// DefaultDeviceID is used when the machine ID is not available.
const DefaultDeviceID = "maxmix"

// MachineID retrieves an ID identifying the machine, derived with the
// application name so the raw machine ID is not exposed on the broker.
func MachineID() string {
	id, err := machineid.ProtectedID("maxmix")
	if err != nil {
		glog.Warningf("machine id unavailable, using %q: %v", DefaultDeviceID, err)
		return DefaultDeviceID
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return id
}
