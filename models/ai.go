package models

// InboundMessage is one message from an end client to a tenant's agent.
type InboundMessage struct {
	CompanyID  string `json:"company_id"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name,omitempty"`
	Text       string `json:"text"`
}

// AgentReply is what the agent answers. Silent means nothing should be sent
// back to the client (agent disabled for the tenant).
type AgentReply struct {
	Text      string `json:"reply"`
	Silent    bool   `json:"silent"`
	Fallback  bool   `json:"fallback,omitempty"`
	ToolCalls int    `json:"tool_calls,omitempty"`
}
