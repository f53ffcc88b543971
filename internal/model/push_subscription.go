package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `json:"endpoint"`
	P256DH    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"createdAt"`

	// Machines limits reminders to these machine IDs. Empty means every machine.
	Machines []int64 `json:"machines,omitempty"`
}

// Wants reports whether the subscription should receive reminders for machineID.
func (s PushSubscription) Wants(machineID int64) bool {
	if len(s.Machines) == 0 {
		return true
	}
	for _, id := range s.Machines {
		if id == machineID {
			return true
		}
	}
	return false
}
