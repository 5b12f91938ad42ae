package settlementRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casabay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FinalizeWithBooking moves a pending settlement into a terminal state and
// mirrors the decision onto the linked booking inside one MongoDB
// transaction. The settlement update filters on state == pending, so of two
// concurrent callers only one can commit; the loser gets ErrNoPendingMatch.
func (r *MongoSettlementRepo) FinalizeWithBooking(
	ctx context.Context,
	reference string,
	newState models.SettlementState,
	actor string,
	decidedAt time.Time,
	bookingStatus models.BookingStatus,
	paymentStatus models.PaymentStatus,
) (*models.Settlement, error) {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var updated models.Settlement

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{"reference": reference, "state": models.SettlementPending}
		update := bson.M{"$set": bson.M{
			"state":      newState,
			"decided_by": actor,
			"decided_at": decidedAt,
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		if err := r.coll.FindOneAndUpdate(sc, filter, update, opts).Decode(&updated); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrNoPendingMatch
			}
			return fmt.Errorf("finalize settlement %s failed: %w", reference, err)
		}

		set := bson.M{"status": bookingStatus, "updated_at": decidedAt}
		if paymentStatus != "" {
			set["payment_status"] = paymentStatus
		}
		res, err := r.bookingColl.UpdateOne(sc, bson.M{"id": updated.BookingID}, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("mirror decision onto booking %s failed: %w", updated.BookingID, err)
		}
		if res.MatchedCount == 0 {
			return ErrBookingMissing
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrNoPendingMatch) || errors.Is(err, ErrBookingMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("settlement transaction failed: %w", err)
	}

	return &updated, nil
}
