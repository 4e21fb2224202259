package ai

const (
	ToolCheckAvailability = "check_availability"
	ToolCreateAppointment = "create_appointment"
	ToolListAppointments  = "list_appointments"
	ToolCancelAppointment = "cancel_appointment"
	ToolGetBusinessInfo   = "get_business_info"
	ToolGetClientProfile  = "get_client_profile"
)

// Tools is the fixed tool registry offered to the model.
func Tools() []ToolSpec {
	return []ToolSpec{
		{
			Name: ToolCheckAvailability,
			Description: "Lists free start times for a service on a date. Pass a professional to see only " +
				"that professional's free times; without one, opening hours alone are used.",
			Params: []ParamSpec{
				{Name: "date", Type: ParamString, Required: true, Description: "Date as YYYY-MM-DD."},
				{Name: "service", Type: ParamString, Required: true, Description: "Service name or id as the client said it."},
				{Name: "professional", Type: ParamString, Description: "Professional name or id, if the client has a preference."},
				{Name: "period", Type: ParamString, Description: "Part of the day.", Enum: []string{"all", "morning", "afternoon", "evening"}},
			},
		},
		{
			Name: ToolCreateAppointment,
			Description: "Books a service with a professional at a date and time. Only call after the client " +
				"confirmed the service, professional, date and time and told you their name.",
			Params: []ParamSpec{
				{Name: "service", Type: ParamString, Required: true, Description: "Service name or id."},
				{Name: "professional", Type: ParamString, Required: true, Description: "Professional name or id."},
				{Name: "date", Type: ParamString, Required: true, Description: "Date as YYYY-MM-DD."},
				{Name: "time", Type: ParamString, Required: true, Description: "Start time as HH:MM (24h)."},
				{Name: "client_name", Type: ParamString, Description: "Client's name, if not stored yet."},
			},
		},
		{
			Name:        ToolListAppointments,
			Description: "Lists the client's upcoming appointments with their ids.",
		},
		{
			Name:        ToolCancelAppointment,
			Description: "Cancels one of the client's appointments. Use the id returned by list_appointments.",
			Params: []ParamSpec{
				{Name: "appointment_id", Type: ParamString, Required: true, Description: "Appointment id."},
			},
		},
		{
			Name:        ToolGetBusinessInfo,
			Description: "Returns the business name, address, phone, opening hours, services with prices and professionals.",
		},
		{
			Name:        ToolGetClientProfile,
			Description: "Returns the client's stored profile. Pass name to record the client's name.",
			Params: []ParamSpec{
				{Name: "name", Type: ParamString, Description: "Client's name, when they just told you."},
			},
		},
	}
}
