package cli

import (
	"context"

	"github.com/layercake-run/layercake/pkg/config"
	lcerrors "github.com/layercake-run/layercake/pkg/errors"
	"github.com/layercake-run/layercake/pkg/storage"
	"github.com/layercake-run/layercake/pkg/storage/memstore"
	"github.com/layercake-run/layercake/pkg/storage/mongostore"
)

// stores bundles every persistence interface a single backend satisfies,
// plus an optional Close for backends that hold a live connection.
type stores struct {
	storage.ProjectStore
	storage.DatasetStore
	storage.GraphDataStore
	storage.PlanStore

	close func(context.Context) error
}

// newStores constructs the storage backend named by c.Config.Storage.Backend.
func (c *CLI) newStores(ctx context.Context) (*stores, error) {
	switch c.Config.Storage.Backend {
	case config.StorageBackendMongo:
		s, err := mongostore.Connect(ctx, c.Config.Storage.MongoURI, c.Config.Storage.MongoDatabase)
		if err != nil {
			return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to connect to mongo storage backend")
		}
		return &stores{ProjectStore: s, DatasetStore: s, GraphDataStore: s, PlanStore: s, close: s.Close}, nil
	default:
		s := memstore.New()
		return &stores{ProjectStore: s, DatasetStore: s, GraphDataStore: s, PlanStore: s}, nil
	}
}

func (s *stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
