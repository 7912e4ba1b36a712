// Package qdrant provides a Qdrant vector database driver implementation.
package qdrant

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/vector"
)

// DefaultCollectionName is the default collection for law embeddings.
const DefaultCollectionName = "gazette"

// Driver implements vector.Driver using Qdrant's gRPC API.
type Driver struct {
	api        *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the Qdrant gRPC endpoint as "host:port".
	// Defaults to "localhost:6334" if empty.
	Target string

	// Collection is the collection name. Defaults to DefaultCollectionName.
	Collection string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver connects to Qdrant and ensures the collection exists with a
// cosine distance configuration. With the cosine metric Qdrant scores are
// already similarities, so Query passes them through unchanged.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	target := c.Target
	if target == "" {
		target = "localhost:6334"
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant target %q: %w", target, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollectionName
	}

	api, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing qdrant client: %w", err)
	}

	d := &Driver{
		api:        api,
		collection: collection,
		logger:     logger,
	}

	if err := d.ensureCollection(ctx, c.Dimensions); err != nil {
		return nil, err
	}

	logger.Info("qdrant vector driver initialized",
		zap.String("target", target),
		zap.String("collection", collection),
		zap.Uint("dimensions", c.Dimensions),
	)

	return d, nil
}

// ensureCollection creates the collection if it is missing. Safe to call
// repeatedly.
func (d *Driver) ensureCollection(ctx context.Context, dimensions uint) error {
	collections, err := d.api.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	if slices.Contains(collections, d.collection) {
		return nil
	}

	req := &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	}

	if err := d.api.CreateCollection(ctx, req); err != nil {
		return fmt.Errorf("creating collection %q: %w", d.collection, err)
	}

	d.logger.Info("created qdrant collection", zap.String("collection", d.collection))
	return nil
}

// Add stores documents with their embeddings. Upserting an existing ID
// replaces the stored point.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"title":   doc.Title,
				"content": doc.Content,
			}),
		})
	}

	wait := true
	req := &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           &wait,
	}

	if _, err := d.api.Upsert(ctx, req); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		zap.String("collection", d.collection),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	limit := uint64(topK)
	req := &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}

	resp, err := d.api.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: querying qdrant: %v", vector.ErrRetrieval, err)
	}

	results := make([]vector.QueryResult, 0, len(resp))
	for _, point := range resp {
		doc, err := documentFromPayload(point.Id, point.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vector.ErrRetrieval, err)
		}

		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    point.Score,
		})
	}

	d.logger.Debug("queried qdrant",
		zap.String("collection", d.collection),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// documentFromPayload reconstructs a Document from a point's ID and payload.
func documentFromPayload(id *qdrant.PointId, payload map[string]*qdrant.Value) (vector.Document, error) {
	doc := vector.Document{}

	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		doc.ID = v.Uuid
	case *qdrant.PointId_Num:
		doc.ID = strconv.FormatUint(v.Num, 10)
	default:
		return doc, fmt.Errorf("unexpected point id type: %T", v)
	}

	if v, ok := payload["title"]; ok {
		doc.Title = v.GetStringValue()
	}
	if v, ok := payload["content"]; ok {
		doc.Content = v.GetStringValue()
	}

	return doc, nil
}

// Get retrieves documents by their IDs, embeddings included.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	withVectors := qdrant.NewWithVectors(true)
	resp, err := d.api.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    withVectors,
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(resp))
	for _, point := range resp {
		doc, err := documentFromPayload(point.Id, point.Payload)
		if err != nil {
			return nil, err
		}
		if vec := point.Vectors.GetVector(); vec != nil {
			doc.Embedding = vec.Data
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// List returns stored documents without embeddings via a scroll request.
// Qdrant has no creation-time ordering, so the order here is point order.
func (d *Driver) List(ctx context.Context) ([]vector.Document, error) {
	resp, err := d.api.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: d.collection,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}

	docs := make([]vector.Document, 0, len(resp))
	for _, point := range resp {
		doc, err := documentFromPayload(point.Id, point.Payload)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	wait := true
	req := &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: &wait,
	}

	if _, err := d.api.Delete(ctx, req); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	return nil
}

// Close releases the underlying gRPC connection.
func (d *Driver) Close() error {
	return d.api.Close()
}

// Ensure Driver implements vector.Driver
var _ vector.Driver = (*Driver)(nil)
