package provider

import (
	"strings"

	"github.com/convodesk/convodesk/domains/channel"
)

// EndpointHypothesis is one candidate combination of base-URL shape and
// authentication placement for the external provider. The provider has
// shipped several incompatible URL layouts over time and gives no way to
// discover which one a given instance speaks, so the resolver tries them in
// order until one answers with a non-error payload.
//
// Templates may reference {base}, {instanceId} and {token}.
type EndpointHypothesis struct {
	BaseURLTemplate string
	AuthMode        channel.AuthMode
	Description     string
}

// DefaultHypotheses is ordered by presumed likelihood of correctness,
// newest provider shape first. Plain data so it can be extended and tested
// independently of the request logic.
var DefaultHypotheses = []EndpointHypothesis{
	{
		BaseURLTemplate: "{base}/instances/{instanceId}/token/{token}",
		AuthMode:        channel.AuthTokenInPath,
		Description:     "current shape, token embedded in path",
	},
	{
		BaseURLTemplate: "{base}/instances/{instanceId}",
		AuthMode:        channel.AuthTokenInHeader,
		Description:     "current shape, token via Client-Token header",
	},
	{
		BaseURLTemplate: "{base}/v2/instances/{instanceId}/token/{token}",
		AuthMode:        channel.AuthTokenInPath,
		Description:     "versioned v2 prefix, token in path",
	},
	{
		BaseURLTemplate: "{base}/instance/{instanceId}/token/{token}",
		AuthMode:        channel.AuthTokenInPath,
		Description:     "legacy singular prefix, token in path",
	},
	{
		BaseURLTemplate: "{base}/instance/{instanceId}",
		AuthMode:        channel.AuthTokenInHeader,
		Description:     "legacy singular prefix, token via header",
	},
}

// expand substitutes the template placeholders for one credential set.
func (h EndpointHypothesis) expand(base string, cred channel.Credential) string {
	url := h.BaseURLTemplate
	url = strings.ReplaceAll(url, "{base}", strings.TrimRight(base, "/"))
	url = strings.ReplaceAll(url, "{instanceId}", cred.InstanceID)
	url = strings.ReplaceAll(url, "{token}", cred.SecretToken)
	return url
}
