package strategies

import (
	"go.uber.org/zap"

	"resizer/internal/core"
	"resizer/internal/core/engine"
	"resizer/internal/pkg/httpclient"
	"resizer/internal/storage"
)

// RegisterAll wires every strategy into the registry with fully
// constructed collaborators.
func RegisterAll(reg *core.Registry, fetcher httpclient.Fetcher, prepared *core.PreparedCache, store storage.ObjectStore, resolver *engine.Resolver, log *zap.Logger) {
	reg.Register(NewDirectServing())
	reg.Register(NewNativeTransform(fetcher, prepared, store, log))
	reg.Register(NewGatewayURL(fetcher, prepared))
	reg.Register(NewDirectURLNative(fetcher, prepared))
	reg.Register(NewRemoteFallback(fetcher, prepared))
	reg.Register(NewDegradedNative(resolver))
}
