package logger

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Chat
	FieldWidgetID = "widget_id"
	FieldOutcome  = "outcome"
	FieldFormID   = "form_id"
	FieldChatID   = "chat_id"

	FieldService = "service"
)
