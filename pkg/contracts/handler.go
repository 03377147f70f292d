package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Dependency is something /ready checks before reporting the service ready.
type Dependency interface {
	Name() string
	Ping(ctx context.Context) error
}

// DependencyFunc adapts a name and a ping function to Dependency.
type DependencyFunc struct {
	DependencyName string
	PingFunc       func(ctx context.Context) error
}

func (d DependencyFunc) Name() string                   { return d.DependencyName }
func (d DependencyFunc) Ping(ctx context.Context) error { return d.PingFunc(ctx) }
