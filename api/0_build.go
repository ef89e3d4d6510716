package api

import (
	"context"

	"github.com/fulldump/box"

	"github.com/docbridge/docbridge/service"
)

// Build mounts the dynamic REST surface. There are no static routes per
// collection: the collection name and the document id are url parameters,
// and an empty collection name turns the request into a listing.
func Build(s service.Servicer) *box.B {

	b := box.NewBox()

	b.WithInterceptors(
		injectServicer(s),
		box.SetResponseHeader("Content-Type", "application/json"),
	)

	b.Resource("/{collectionName}").
		WithActions(
			box.Get(listDocuments),
			box.Post(insertDocuments),
			box.Put(updateCollection),
			box.Patch(patchCollection),
			box.Delete(deleteCollection),
			box.Options(preflight),
		)

	b.Resource("/{collectionName}/{documentId}").
		WithActions(
			box.Get(getDocument),
			box.Put(replaceDocument),
			box.Patch(patchDocument),
			box.Delete(deleteDocument),
			box.Options(preflight),
		)

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(SetServicer(ctx, s))
		}
	}
}
