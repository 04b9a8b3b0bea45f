package event

// View is a read-only projection of a Record plus derived display and
// classification fields. It carries its own copy of the record.
type View struct {
	Record

	DisplayPrice    string `json:"display_price"`
	DisplayDate     string `json:"display_date"`
	DisplayLocation string `json:"display_location"`
	EventType       string `json:"event_type"`

	// Blurb is an optional one-line newsletter description.
	Blurb string `json:"blurb,omitempty"`
}

// Values returns the view's column values in ViewContract order.
func (v View) Values() []string {
	out := v.Record.Values()
	return append(out,
		v.DisplayPrice,
		v.DisplayDate,
		v.DisplayLocation,
		v.EventType,
		v.Blurb,
	)
}
