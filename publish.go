package main

import (
	"context"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/raidar/soulbound/market"
	"github.com/raidar/soulbound/store"
)

const paymentBatch = 16

// PaymentWorker drains initial transfer intents and hands them to the host
// payment rail, then marks them done. The ledger wrote each intent atomically
// with the call that owes it, this loop only executes what is already owed.
type PaymentWorker struct {
	store *store.BadgerStore
}

func NewPaymentWorker(db *store.BadgerStore) *PaymentWorker {
	return &PaymentWorker{store: db}
}

func (pw *PaymentWorker) Run(ctx context.Context) {
	for {
		transfers, err := pw.store.ListTransfers(market.TransferStateInitial, paymentBatch)
		if err != nil {
			logger.Printf("PaymentWorker.ListTransfers %v\n", err)
			time.Sleep(3 * time.Second)
			continue
		}
		for _, t := range transfers {
			err = pw.publish(ctx, t)
			if err != nil {
				logger.Printf("PaymentWorker.publish %s %v\n", t.TraceID, err)
				break
			}
		}
		if len(transfers) < paymentBatch {
			time.Sleep(1 * time.Second)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (pw *PaymentWorker) publish(ctx context.Context, t *market.Transfer) error {
	logger.Printf("PaymentWorker.transfer %s %s %s %s\n", t.TraceID, t.Opponent, t.Amount, t.Memo)
	t.State = market.TransferStateDone
	t.UpdatedAt = time.Now()
	return pw.store.WriteTransfer(t)
}
