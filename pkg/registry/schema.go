// pkg/registry/schema.go
package registry

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Version     string   `json:"version"`
	TaskType    string   `json:"taskType"`
	HTTPRoute   string   `json:"httpRoute,omitempty"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	// Retries is always 0; failed jobs are thrown as BPMN errors.
	Retries int      `json:"retries"`
	Tags    []string `json:"tags"`
}
