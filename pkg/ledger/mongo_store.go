package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

var categoryFields = map[entitlement.Category]string{
	entitlement.CategoryPriceChecks:   "used_price_checks",
	entitlement.CategoryOptimizations: "used_optimizations",
	entitlement.CategoryPhotoStudio:   "used_photo_studio",
}

type mongoLedger struct {
	AccountID         string `bson:"_id"`
	CreditLimit       int64  `bson:"credit_limit"`
	UsedPriceChecks   int64  `bson:"used_price_checks"`
	UsedOptimizations int64  `bson:"used_optimizations"`
	UsedPhotoStudio   int64  `bson:"used_photo_studio"`
	TotalUsed         int64  `bson:"total_used"`
	FirstItemPassUsed bool   `bson:"first_item_pass_used"`
}

// MongoStore implements Store on a MongoDB collection. A redundant total_used
// field is maintained alongside the category counters so the ceiling check
// can be expressed as a single $expr-guarded update.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a ledger store on the given collection.
// Panics if coll is nil to fail fast during initialization.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	if coll == nil {
		panic("ledger: mongo collection is required")
	}
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Get(ctx context.Context, accountID uuid.UUID) (entitlement.Ledger, error) {
	var doc mongoLedger
	err := s.coll.FindOne(ctx, bson.M{"_id": accountID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entitlement.Ledger{}, ErrLedgerNotFound
		}
		return entitlement.Ledger{}, errors.Join(ErrStoreFailure, err)
	}

	return entitlement.Ledger{
		CreditLimit: doc.CreditLimit,
		Used: map[entitlement.Category]int64{
			entitlement.CategoryPriceChecks:   doc.UsedPriceChecks,
			entitlement.CategoryOptimizations: doc.UsedOptimizations,
			entitlement.CategoryPhotoStudio:   doc.UsedPhotoStudio,
		},
		FirstItemPassUsed: doc.FirstItemPassUsed,
	}, nil
}

func (s *MongoStore) Create(ctx context.Context, accountID uuid.UUID, creditLimit int64) error {
	_, err := s.coll.InsertOne(ctx, mongoLedger{
		AccountID:   accountID.String(),
		CreditLimit: creditLimit,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrLedgerAlreadyExists
		}
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *MongoStore) IncrementUsage(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	field, ok := categoryFields[cat]
	if !ok {
		return 0, entitlement.ErrUnknownLedgerCategory
	}

	var doc mongoLedger
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": accountID.String()},
		bson.M{"$inc": bson.M{field: n, "total_used": n}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrLedgerNotFound
		}
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return doc.TotalUsed, nil
}

func (s *MongoStore) IncrementUsageWithCeiling(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	field, ok := categoryFields[cat]
	if !ok {
		return 0, entitlement.ErrUnknownLedgerCategory
	}

	// The $expr guard and the $inc run as one atomic document update.
	filter := bson.M{
		"_id": accountID.String(),
		"$expr": bson.M{"$or": bson.A{
			bson.M{"$gte": bson.A{"$credit_limit", entitlement.UnlimitedThreshold}},
			bson.M{"$lte": bson.A{
				bson.M{"$add": bson.A{"$total_used", n}},
				"$credit_limit",
			}},
		}},
	}

	var doc mongoLedger
	err := s.coll.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$inc": bson.M{field: n, "total_used": n}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return max(0, doc.CreditLimit-doc.TotalUsed), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, errors.Join(ErrStoreFailure, err)
	}

	// No document matched: either the ledger is missing or the ceiling held.
	led, getErr := s.Get(ctx, accountID)
	if getErr != nil {
		return 0, getErr
	}
	return led.Remaining(), ErrCeilingExceeded
}

func (s *MongoStore) SetCreditLimit(ctx context.Context, accountID uuid.UUID, limit int64) error {
	return s.update(ctx, accountID, bson.M{"$set": bson.M{"credit_limit": limit}})
}

func (s *MongoStore) AddCredits(ctx context.Context, accountID uuid.UUID, n int64) error {
	if n <= 0 {
		return ErrInvalidAmount
	}
	return s.update(ctx, accountID, bson.M{"$inc": bson.M{"credit_limit": n}})
}

func (s *MongoStore) ResetUsage(ctx context.Context, accountID uuid.UUID) error {
	zero := bson.M{"total_used": int64(0)}
	for _, field := range categoryFields {
		zero[field] = int64(0)
	}
	return s.update(ctx, accountID, bson.M{"$set": zero})
}

func (s *MongoStore) MarkFirstItemPassUsed(ctx context.Context, accountID uuid.UUID) error {
	return s.update(ctx, accountID, bson.M{"$set": bson.M{"first_item_pass_used": true}})
}

func (s *MongoStore) update(ctx context.Context, accountID uuid.UUID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": accountID.String()}, update)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if res.MatchedCount == 0 {
		return ErrLedgerNotFound
	}
	return nil
}
