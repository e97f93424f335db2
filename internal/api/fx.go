// Package api is the JSON surface the host application talks to.
//
// It maps each request onto one repository operation and nothing more:
// rendering, fetching feed contents and scheduling checks belong to the host.
package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(
		NewServer,
	),
)
