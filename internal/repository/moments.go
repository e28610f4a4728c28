package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

const (
	analysesCollection = "analyses"
	momentsCollection  = "moments"

	mongoTimeout = 10 * time.Second
)

type MomentRepository struct {
	mongo *mongo.Database
	log   *zap.SugaredLogger
}

func NewMomentRepository(db *mongo.Database, log *zap.SugaredLogger) *MomentRepository {
	return &MomentRepository{mongo: db, log: log}
}

// SaveAnalysis replaces any earlier analysis of the same game.
func (r *MomentRepository) SaveAnalysis(ctx context.Context, record game.AnalysisRecord, moments []analysis.AnalyzedMoment) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	_, err := r.mongo.Collection(analysesCollection).ReplaceOne(ctx,
		bson.M{"_id": record.GameID},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert analysis %s: %w", record.GameID, err)
	}

	coll := r.mongo.Collection(momentsCollection)
	if _, err := coll.DeleteMany(ctx, bson.M{"game_id": record.GameID}); err != nil {
		return fmt.Errorf("clear moments of %s: %w", record.GameID, err)
	}

	if len(moments) > 0 {
		docs := make([]interface{}, len(moments))
		for i, m := range moments {
			m.GameID = record.GameID
			docs[i] = m
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert moments of %s: %w", record.GameID, err)
		}
	}

	r.log.Infow("analysis stored", "game_id", record.GameID, "moments", len(moments))
	return nil
}

func (r *MomentRepository) GetAnalysis(ctx context.Context, gameID string) (game.AnalysisRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var record game.AnalysisRecord
	err := r.mongo.Collection(analysesCollection).FindOne(ctx, bson.M{"_id": gameID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return record, fmt.Errorf("%w: %s", apperrors.ErrGameNotFound, gameID)
	}
	if err != nil {
		return record, fmt.Errorf("find analysis %s: %w", gameID, err)
	}
	return record, nil
}

// GetMomentsByGame returns the stored moments of a game in ply order.
func (r *MomentRepository) GetMomentsByGame(ctx context.Context, gameID string) ([]analysis.AnalyzedMoment, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	cursor, err := r.mongo.Collection(momentsCollection).Find(ctx,
		bson.M{"game_id": gameID},
		options.Find().SetSort(bson.D{{Key: "ply", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find moments of %s: %w", gameID, err)
	}
	defer cursor.Close(ctx)

	var moments []analysis.AnalyzedMoment
	if err := cursor.All(ctx, &moments); err != nil {
		return nil, fmt.Errorf("decode moments of %s: %w", gameID, err)
	}
	if len(moments) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrGameNotFound, gameID)
	}
	return moments, nil
}
