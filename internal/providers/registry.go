package providers

import (
	"fmt"

	"github.com/condaops/cirotate/internal/credentials"
)

// Order is the fixed sequence providers are rotated in.
var Order = []string{
	credentials.Circle,
	credentials.Drone,
	credentials.Travis,
	credentials.Azure,
	credentials.Appveyor,
}

// Known reports whether name is a supported provider.
func Known(name string) bool {
	for _, n := range Order {
		if n == name {
			return true
		}
	}
	return false
}

// New builds the named provider's rotator, resolving its credential from
// creds. An unresolved credential is an error here rather than at request
// time so it surfaces attributed to the right provider.
func New(name string, creds *credentials.Bundle) (Rotator, error) {
	if !Known(name) {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	token, err := creds.Token(name).Value()
	if err != nil {
		return nil, err
	}

	switch name {
	case credentials.Circle:
		return NewCircleProvider(token), nil
	case credentials.Drone:
		return NewDroneProvider(token), nil
	case credentials.Travis:
		return NewTravisProvider(token), nil
	case credentials.Azure:
		return NewAzureProvider(token), nil
	default:
		return NewAppveyorProvider(token), nil
	}
}

// Info describes one provider for display.
type Info struct {
	Name     string
	Endpoint string
	Auth     string
	Upsert   string
}

// Infos returns display metadata for every provider in rotation order.
func Infos() []Info {
	return []Info{
		{
			Name:     credentials.Circle,
			Endpoint: defaultCircleBaseURL,
			Auth:     "query-string token",
			Upsert:   "delete then create",
		},
		{
			Name:     credentials.Drone,
			Endpoint: defaultDroneBaseURL,
			Auth:     "bearer token",
			Upsert:   "patch by name",
		},
		{
			Name:     credentials.Travis,
			Endpoint: defaultTravisBaseURL,
			Auth:     "token header",
			Upsert:   "patch by env var id",
		},
		{
			Name:     credentials.Azure,
			Endpoint: defaultAzureBaseURL,
			Auth:     "basic auth PAT",
			Upsert:   "full definition update",
		},
		{
			Name:     credentials.Appveyor,
			Endpoint: defaultAppveyorBaseURL,
			Auth:     "bearer token",
			Upsert:   "encrypt into conda-forge.yml",
		},
	}
}
