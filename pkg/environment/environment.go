// Package environment names the deployment environments the service distinguishes.
package environment

import "strings"

// Environment represents application environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Staging     Environment = "staging"
)

// Parse maps APP_ENV values, including the short aliases, to an Environment.
// Unknown or empty values are treated as Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Production), "prod":
		return Production
	case string(Staging), "stage":
		return Staging
	default:
		return Development
	}
}

func (e Environment) IsProduction() bool {
	return e == Production
}

func (e Environment) IsDevelopment() bool {
	return e == Development
}

func (e Environment) String() string {
	return string(e)
}
