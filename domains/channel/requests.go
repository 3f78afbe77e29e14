package channel

// CreateRequest is the payload for registering a new channel.
type CreateRequest struct {
	Name        string `json:"name" form:"name"`
	Provider    string `json:"provider" form:"provider"`
	InstanceID  string `json:"instance_id" form:"instance_id"`
	SecretToken string `json:"secret_token" form:"secret_token"`
	AuthMode    string `json:"auth_mode" form:"auth_mode"`
	ClientToken string `json:"client_token,omitempty" form:"client_token"`
}

// UpdateRequest carries the mutable channel fields; empty fields keep
// their current value.
type UpdateRequest struct {
	Name        string `json:"name,omitempty" form:"name"`
	InstanceID  string `json:"instance_id,omitempty" form:"instance_id"`
	SecretToken string `json:"secret_token,omitempty" form:"secret_token"`
	AuthMode    string `json:"auth_mode,omitempty" form:"auth_mode"`
	ClientToken string `json:"client_token,omitempty" form:"client_token"`
	Enabled     *bool  `json:"enabled,omitempty" form:"enabled"`
}
