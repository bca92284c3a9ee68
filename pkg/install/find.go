package install

import (
	"context"

	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/locate"
)

// FindAndHook hooks the method of typ whose parameters are exactly refs.
func (i *Installer) FindAndHook(ctx context.Context, typ *host.Type, method string, spec hooks.Spec, refs ...locate.Ref) *Handle {
	return i.Install(ctx, locate.Descriptor{
		Type:   typ,
		Method: method,
		Params: locate.Exact(refs...),
	}, spec)
}

// FindAndHookByName is FindAndHook with the type looked up in loader.
func (i *Installer) FindAndHookByName(ctx context.Context, loader *host.Loader, typeName, method string, spec hooks.Spec, refs ...locate.Ref) *Handle {
	return i.Install(ctx, locate.Descriptor{
		TypeName: typeName,
		Loader:   loader,
		Method:   method,
		Params:   locate.Exact(refs...),
	}, spec)
}

// FindAndHookBest hooks the overload of typ that best accepts refs.
func (i *Installer) FindAndHookBest(ctx context.Context, typ *host.Type, method string, spec hooks.Spec, refs ...locate.Ref) *Handle {
	return i.Install(ctx, locate.Descriptor{
		Type:   typ,
		Method: method,
		Params: locate.BestMatch(refs...),
	}, spec)
}

// FindAndHookBestByName is FindAndHookBest with the type looked up in loader.
func (i *Installer) FindAndHookBestByName(ctx context.Context, loader *host.Loader, typeName, method string, spec hooks.Spec, refs ...locate.Ref) *Handle {
	return i.Install(ctx, locate.Descriptor{
		TypeName: typeName,
		Loader:   loader,
		Method:   method,
		Params:   locate.BestMatch(refs...),
	}, spec)
}
