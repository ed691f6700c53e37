package owner

import (
	"context"
	"fmt"

	"github.com/matzehuels/digraph/pkg/graph"
)

// Save writes the current document to the store.
func (o *Owner) Save(ctx context.Context) error {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	return o.persist(ctx, o.Document())
}

// Key returns the store key the owner persists to, if any.
func (o *Owner) Key() string { return o.key }

func (o *Owner) persist(ctx context.Context, doc graph.Document) error {
	if o.store == nil {
		return nil
	}
	data, err := o.codec.Marshal(doc, o.format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", o.key, err)
	}
	if err := o.store.Set(ctx, o.key, data); err != nil {
		o.logger.Error("failed to save document", "key", o.key, "err", err)
		return err
	}
	o.logger.Debug("document saved", "key", o.key, "bytes", len(data))
	return nil
}
