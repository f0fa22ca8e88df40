package contract

type ToolRequest struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is what the model sees after a tool ran. Success is false both
// when the command failed and when the user declined to run it.
type ToolResult struct {
	ID      string `json:"id"`
	Tool    string `json:"tool"`
	Output  string `json:"output"`
	Success bool   `json:"success"`
}
