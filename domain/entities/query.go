package entities

// Query types understood by the provider
const (
	QueryShowAllConfig = "show all config"
	QueryShowConfig    = "show config"
)

// Query is a request sent to the configuration provider
type Query struct {
	Type     string `json:"type"`
	SwitchIP string `json:"switch_ip,omitempty"`
}
