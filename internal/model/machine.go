package model

// Machine is one machine's maintenance entry as persisted under the "machines" key.
type Machine struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	LastServiced Date   `json:"lastServiced"`
	Interval     int    `json:"interval"` // days between services
}

// NextServiceDate is LastServiced plus Interval days.
func (m Machine) NextServiceDate() Date {
	return m.LastServiced.AddDays(m.Interval)
}
