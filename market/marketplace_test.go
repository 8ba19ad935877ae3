package market_test

import (
	"context"
	"testing"

	"github.com/raidar/soulbound/market"
	"github.com/raidar/soulbound/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkRecorder struct {
	events []*market.TokenEvent
}

func (s *sinkRecorder) Notify(ctx context.Context, evt *market.TokenEvent) {
	s.events = append(s.events, evt)
}

func testMarketplace(t *testing.T, conf *market.Configuration) (*market.Marketplace, *store.BadgerStore, *sinkRecorder) {
	db, err := store.OpenBadger(context.Background(), t.TempDir())
	require.Nil(t, err)
	t.Cleanup(func() { db.Close() })

	if conf == nil {
		conf = &market.Configuration{
			Owner:     "admin.market",
			ByteCost:  "1",
			MediaKind: "song",
		}
	}
	sink := &sinkRecorder{}
	mkt, err := market.NewMarketplace(db, sink, conf)
	require.Nil(t, err)
	return mkt, db, sink
}

func ownerCall() *market.Call {
	return &market.Call{TraceID: "owner-call", Caller: "admin.market", Deposit: decimal.NewFromInt(100000)}
}

func mintSong(t *testing.T, mkt *market.Marketplace, id string, price int64) {
	_, err := mkt.Mint(context.Background(), &market.Call{
		TraceID: "mint-" + id,
		Caller:  "alice.near",
		Deposit: decimal.NewFromInt(100000),
	}, &market.ItemCreation{
		ItemID:      id,
		Name:        "Song " + id,
		Description: "a test song",
		Price:       decimal.NewFromInt(price),
	})
	require.Nil(t, err)
}

func findTransfer(transfers []*market.Transfer, opponent, memo string) *market.Transfer {
	for _, tr := range transfers {
		if tr.Opponent == opponent && tr.Memo == memo {
			return tr
		}
	}
	return nil
}

func TestMarketScenario(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, db, sink := testMarketplace(t, nil)

	// alice mints song-1 priced at 100, the deposit covers the catalog bytes
	// and the surplus comes straight back
	usedBefore, err := db.StorageUsed()
	assert.Nil(err)
	item, err := mkt.Mint(ctx, &market.Call{
		TraceID: "mint-1",
		Caller:  "alice.near",
		Deposit: decimal.NewFromInt(10000),
	}, &market.ItemCreation{
		ItemID:      "song-1",
		Name:        "First Song",
		Description: "the first one",
		Price:       decimal.NewFromInt(100),
	})
	require.Nil(t, err)
	assert.Equal("alice.near", item.Creator)
	usedAfterMint, err := db.StorageUsed()
	assert.Nil(err)
	assert.Greater(usedAfterMint, usedBefore)

	transfers, err := db.ListTransfers(market.TransferStateInitial, 100)
	assert.Nil(err)
	mintRefund := findTransfer(transfers, "alice.near", "refund")
	require.NotNil(t, mintRefund)
	expected := decimal.NewFromInt(10000).Sub(decimal.NewFromInt(int64(usedAfterMint - usedBefore)))
	assert.True(mintRefund.Amount.Equal(expected))
	// mint creates no holding and emits no ownership event
	assert.Len(sink.events, 0)
	supply, err := mkt.TotalSupply()
	assert.Nil(err)
	assert.Equal(uint64(0), supply)

	// bob buys with 150 attached, pays 100 to alice and gets the surplus
	// minus rent back
	meta, err := mkt.Buy(ctx, &market.Call{
		TraceID: "buy-1",
		Caller:  "bob88",
		Deposit: decimal.NewFromInt(150),
	}, "song-1")
	require.Nil(t, err)
	assert.Equal("First Song", meta.Title)
	assert.Equal("song/song-1/media", meta.Media)
	usedAfterBuy, err := db.StorageUsed()
	assert.Nil(err)
	delta := decimal.NewFromInt(int64(usedAfterBuy - usedAfterMint))

	transfers, err = db.ListTransfers(market.TransferStateInitial, 100)
	assert.Nil(err)
	payment := findTransfer(transfers, "alice.near", "payment")
	require.NotNil(t, payment)
	assert.True(payment.Amount.Equal(decimal.NewFromInt(100)))
	buyRefund := findTransfer(transfers, "bob88", "refund")
	require.NotNil(t, buyRefund)
	assert.True(buyRefund.Amount.Equal(decimal.NewFromInt(50).Sub(delta)))

	tokens, err := mkt.HoldingsForAccount("bob88", 0, 50)
	assert.Nil(err)
	require.Len(t, tokens, 1)
	assert.Equal("bob88:song-1", tokens[0].HoldingID)
	require.Len(t, sink.events, 1)
	assert.Equal(market.EventTypeMint, sink.events[0].Type)
	assert.Equal("bob88:song-1", sink.events[0].HoldingID)
	supply, err = mkt.TotalSupply()
	assert.Nil(err)
	assert.Equal(uint64(1), supply)

	// the owner burns bob's copy
	err = mkt.Burn(ctx, ownerCall(), "bob88", "song-1")
	assert.Nil(err)
	tokens, err = mkt.HoldingsForAccount("bob88", 0, 50)
	assert.Nil(err)
	assert.Len(tokens, 0)
	supply, err = mkt.TotalSupply()
	assert.Nil(err)
	assert.Equal(uint64(0), supply)
	require.Len(t, sink.events, 2)
	assert.Equal(market.EventTypeBurn, sink.events[1].Type)
	assert.Equal("bob88:song-1", sink.events[1].HoldingID)

	// the catalog entry stays after burn
	resolved, err := mkt.ResolveHolding("bob88:song-1")
	assert.Nil(err)
	assert.Equal("First Song", resolved.Title)

	err = mkt.Burn(ctx, ownerCall(), "bob88", "song-1")
	assert.Equal(market.ErrNoHoldings, err)
}

func TestBuyErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, db, sink := testMarketplace(t, nil)

	_, err := mkt.Buy(ctx, &market.Call{
		TraceID: "buy-unknown",
		Caller:  "bob88",
		Deposit: decimal.NewFromInt(1000),
	}, "unknown-item")
	assert.Equal(market.ErrItemNotFound, err)
	assert.Len(sink.events, 0)
	transfers, err := db.ListTransfers(market.TransferStateInitial, 100)
	assert.Nil(err)
	assert.Nil(findTransfer(transfers, "bob88", "refund"))

	mintSong(t, mkt, "song-1", 100)
	usedBefore, err := db.StorageUsed()
	assert.Nil(err)

	// deposit below price, nothing moves
	_, err = mkt.Buy(ctx, &market.Call{
		TraceID: "buy-short",
		Caller:  "bob88",
		Deposit: decimal.NewFromInt(50),
	}, "song-1")
	require.NotNil(t, err)
	ide, ok := err.(*market.InsufficientDepositError)
	require.True(t, ok)
	assert.True(ide.Required.Equal(decimal.NewFromInt(100)))

	tokens, err := mkt.HoldingsForAccount("bob88", 0, 50)
	assert.Nil(err)
	assert.Len(tokens, 0)
	transfers, err = db.ListTransfers(market.TransferStateInitial, 100)
	assert.Nil(err)
	assert.Nil(findTransfer(transfers, "alice.near", "payment"))
	usedAfter, err := db.StorageUsed()
	assert.Nil(err)
	assert.Equal(usedBefore, usedAfter)
	assert.Len(sink.events, 0)
}

func TestBuyForUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, db, sink := testMarketplace(t, nil)
	mintSong(t, mkt, "song-1", 100)

	_, err := mkt.BuyForUser(ctx, &market.Call{
		TraceID: "grant-1",
		Caller:  "bob88",
		Deposit: decimal.NewFromInt(1000),
	}, "song-1", "carol7")
	assert.Equal(market.ErrUnauthorized, err)

	_, err = mkt.BuyForUser(ctx, ownerCall(), "song-1", "Not-Valid")
	assert.Equal(market.ErrInvalidAccount, err)

	_, err = mkt.BuyForUser(ctx, ownerCall(), "unknown-item", "carol7")
	assert.Equal(market.ErrItemNotFound, err)

	meta, err := mkt.BuyForUser(ctx, ownerCall(), "song-1", "carol7")
	require.Nil(t, err)
	assert.Equal("First Song", meta.Title)

	tokens, err := mkt.HoldingsForAccount("carol7", 0, 50)
	assert.Nil(err)
	require.Len(t, tokens, 1)
	assert.Equal("carol7:song-1", tokens[0].HoldingID)
	require.Len(t, sink.events, 1)
	assert.Equal(market.EventTypeMint, sink.events[0].Type)

	// a grant moves no payment
	transfers, err := db.ListTransfers(market.TransferStateInitial, 100)
	assert.Nil(err)
	assert.Nil(findTransfer(transfers, "alice.near", "payment"))
}

func TestBurnErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, _, _ := testMarketplace(t, nil)
	mintSong(t, mkt, "song-1", 0)

	err := mkt.Burn(ctx, &market.Call{TraceID: "t", Caller: "bob88"}, "bob88", "song-1")
	assert.Equal(market.ErrUnauthorized, err)

	err = mkt.Burn(ctx, ownerCall(), "bob88", "song-1")
	assert.Equal(market.ErrNoHoldings, err)

	_, err = mkt.BuyForUser(ctx, ownerCall(), "song-1", "bob88")
	require.Nil(t, err)
	err = mkt.Burn(ctx, ownerCall(), "bob88", "song-2")
	assert.Equal(market.ErrTokenNotOwned, err)
}

func TestTotalSupplyAcrossAccounts(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, _, _ := testMarketplace(t, nil)
	mintSong(t, mkt, "song-1", 0)
	mintSong(t, mkt, "song-2", 0)

	for _, account := range []string{"bob88", "carol7"} {
		for _, id := range []string{"song-1", "song-2"} {
			_, err := mkt.BuyForUser(ctx, &market.Call{
				TraceID: "grant-" + account + "-" + id,
				Caller:  "admin.market",
				Deposit: decimal.NewFromInt(100000),
			}, id, account)
			require.Nil(t, err)
		}
	}

	supply, err := mkt.TotalSupply()
	assert.Nil(err)
	assert.Equal(uint64(4), supply)

	// list pagination is per account, one account yields both its holdings
	tokens, err := mkt.ListHoldings(0, 1)
	assert.Nil(err)
	require.Len(t, tokens, 2)
	assert.Equal("bob88", tokens[0].Account)
	tokens, err = mkt.ListHoldings(1, 1)
	assert.Nil(err)
	require.Len(t, tokens, 2)
	assert.Equal("carol7", tokens[0].Account)
	tokens, err = mkt.ListHoldings(2, 1)
	assert.Nil(err)
	assert.Len(tokens, 0)

	// supply does not depend on pagination
	supply, err = mkt.TotalSupply()
	assert.Nil(err)
	assert.Equal(uint64(4), supply)
}

func TestDuplicateHoldings(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, _, _ := testMarketplace(t, nil)
	mintSong(t, mkt, "song-1", 10)

	for _, trace := range []string{"buy-1", "buy-2"} {
		_, err := mkt.Buy(ctx, &market.Call{
			TraceID: trace,
			Caller:  "bob88",
			Deposit: decimal.NewFromInt(1000),
		}, "song-1")
		require.Nil(t, err)
	}

	// two buys, two slots behind one composite holding id
	tokens, err := mkt.HoldingsForAccount("bob88", 0, 50)
	assert.Nil(err)
	require.Len(t, tokens, 2)
	assert.Equal(tokens[0].HoldingID, tokens[1].HoldingID)
	supply, err := mkt.TotalSupply()
	assert.Nil(err)
	assert.Equal(uint64(2), supply)

	err = mkt.Burn(ctx, ownerCall(), "bob88", "song-1")
	assert.Nil(err)
	tokens, err = mkt.HoldingsForAccount("bob88", 0, 50)
	assert.Nil(err)
	assert.Len(tokens, 1)
}

func TestHoldingsForAccountPagination(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, _, _ := testMarketplace(t, nil)
	for _, id := range []string{"song-1", "song-2", "song-3"} {
		mintSong(t, mkt, id, 0)
		_, err := mkt.BuyForUser(ctx, ownerCall(), id, "bob88")
		require.Nil(t, err)
	}

	tokens, err := mkt.HoldingsForAccount("bob88", 1, 1)
	assert.Nil(err)
	require.Len(t, tokens, 1)
	assert.Equal("bob88:song-2", tokens[0].HoldingID)

	tokens, err = mkt.HoldingsForAccount("bob88", 3, 50)
	assert.Nil(err)
	assert.Len(tokens, 0)

	_, err = mkt.HoldingsForAccount("Not-Valid", 0, 50)
	assert.Equal(market.ErrInvalidAccount, err)
}

func TestResolveHolding(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, _, _ := testMarketplace(t, nil)
	_, err := mkt.Mint(ctx, &market.Call{
		TraceID: "mint-1",
		Caller:  "alice.near",
		Deposit: decimal.NewFromInt(100000),
	}, &market.ItemCreation{
		ItemID:      "song-1",
		Name:        "First Song",
		Description: "the first one",
		Extra:       "cover=blue",
		Price:       decimal.NewFromInt(100),
	})
	require.Nil(t, err)

	meta, err := mkt.ResolveHolding("bob88:song-1")
	require.Nil(t, err)
	assert.Equal("First Song", meta.Title)
	assert.Equal("the first one", meta.Description)
	assert.Equal("song/song-1/media", meta.Media)
	assert.Equal("cover=blue", meta.Extra)

	_, err = mkt.ResolveHolding("nodelimiter")
	assert.Equal(market.ErrMalformedHoldingID, err)
	_, err = mkt.ResolveHolding("Not-Valid:song-1")
	assert.Equal(market.ErrInvalidAccount, err)
	_, err = mkt.ResolveHolding("bob88:unknown-item")
	assert.Equal(market.ErrItemNotFound, err)
}

func TestProcessRejectsTransfers(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, db, sink := testMarketplace(t, nil)
	mintSong(t, mkt, "song-1", 0)

	for _, action := range []int{market.ActionTransfer, market.ActionTransferResolve} {
		_, err := mkt.Process(ctx, &market.Operation{
			Action: action,
			Call:   market.Call{TraceID: "t", Caller: "bob88", Deposit: decimal.NewFromInt(1)},
			ItemID: "song-1",
		})
		assert.Equal(market.ErrUnsupportedOperation, err)
	}
	assert.Len(sink.events, 0)
	used, err := db.StorageUsed()
	assert.Nil(err)
	assert.Greater(used, uint64(0))

	_, err = mkt.Process(ctx, &market.Operation{Action: 99})
	assert.True(market.IsErrInvalid(err))

	// the supported actions route through
	_, err = mkt.Process(ctx, &market.Operation{
		Action:  market.ActionBuyForUser,
		Call:    *ownerCall(),
		ItemID:  "song-1",
		Account: "bob88",
	})
	assert.Nil(err)
	_, err = mkt.Process(ctx, &market.Operation{
		Action:  market.ActionBurn,
		Call:    *ownerCall(),
		ItemID:  "song-1",
		Account: "bob88",
	})
	assert.Nil(err)
}

func TestWhitelistEnforcement(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, _, _ := testMarketplace(t, &market.Configuration{
		Owner:            "admin.market",
		ByteCost:         "1",
		MediaKind:        "song",
		EnforceWhitelist: true,
	})

	_, err := mkt.Mint(ctx, &market.Call{
		TraceID: "mint-1",
		Caller:  "alice.near",
		Deposit: decimal.NewFromInt(100000),
	}, &market.ItemCreation{ItemID: "song-1", Name: "First Song", Price: decimal.Zero})
	assert.Equal(market.ErrNotWhitelisted, err)

	err = mkt.AddWhitelistedCreator(ctx, &market.Call{TraceID: "t", Caller: "bob88"}, "alice.near")
	assert.Equal(market.ErrUnauthorized, err)

	err = mkt.AddWhitelistedCreator(ctx, ownerCall(), "alice.near")
	assert.Nil(err)
	accounts, err := mkt.Whitelist()
	assert.Nil(err)
	assert.Equal([]string{"alice.near"}, accounts)

	mintSong(t, mkt, "song-1", 0)

	err = mkt.RemoveWhitelistedCreator(ctx, ownerCall(), "alice.near")
	assert.Nil(err)
	_, err = mkt.Mint(ctx, &market.Call{
		TraceID: "mint-2",
		Caller:  "alice.near",
		Deposit: decimal.NewFromInt(100000),
	}, &market.ItemCreation{ItemID: "song-2", Name: "Second Song", Price: decimal.Zero})
	assert.Equal(market.ErrNotWhitelisted, err)
}

func TestContractMetadata(t *testing.T) {
	assert := assert.New(t)
	mkt, _, _ := testMarketplace(t, &market.Configuration{
		Owner:     "admin.market",
		ByteCost:  "1",
		MediaKind: "song",
		Metadata: market.ContractMetadata{
			Name:    "Raidar",
			Symbol:  "RAIDR",
			BaseURI: "https://raidar.example/api/v1",
		},
	})

	meta, err := mkt.ContractMetadata()
	assert.Nil(err)
	assert.Equal("Raidar", meta.Name)
	assert.Equal("RAIDR", meta.Symbol)

	_, err = mkt.UpdateBaseURI(&market.Call{TraceID: "t", Caller: "bob88"}, "https://evil.example")
	assert.Equal(market.ErrUnauthorized, err)

	meta, err = mkt.UpdateBaseURI(ownerCall(), "https://raidar.example/api/v2")
	assert.Nil(err)
	assert.Equal("https://raidar.example/api/v2", meta.BaseURI)
	assert.Equal("RAIDR", meta.Symbol)

	meta, err = mkt.ContractMetadata()
	assert.Nil(err)
	assert.Equal("https://raidar.example/api/v2", meta.BaseURI)

	meta, err = mkt.UpdateIcon(ownerCall(), "data:image/svg+xml;base64,AAAA")
	assert.Nil(err)
	assert.Equal("data:image/svg+xml;base64,AAAA", meta.Icon)
}

func TestMintValidation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mkt, db, _ := testMarketplace(t, nil)
	call := func() *market.Call {
		return &market.Call{TraceID: "mint-x", Caller: "alice.near", Deposit: decimal.NewFromInt(100000)}
	}

	_, err := mkt.Mint(ctx, call(), &market.ItemCreation{ItemID: "", Name: "x", Price: decimal.Zero})
	assert.Equal(market.ErrInvalidItemID, err)

	_, err = mkt.Mint(ctx, call(), &market.ItemCreation{ItemID: "a:b", Name: "x", Price: decimal.Zero})
	assert.Equal(market.ErrInvalidItemID, err)

	_, err = mkt.Mint(ctx, call(), &market.ItemCreation{ItemID: "song-1", Name: "x", Price: decimal.NewFromInt(-1)})
	assert.True(market.IsErrInvalid(err))

	_, err = mkt.Mint(ctx, call(), &market.ItemCreation{ItemID: "song-1", Name: "x", Price: decimal.NewFromFloat(1.5)})
	assert.True(market.IsErrInvalid(err))

	_, err = mkt.Mint(ctx, &market.Call{TraceID: "t", Caller: "Not-Valid"}, &market.ItemCreation{ItemID: "song-1", Name: "x", Price: decimal.Zero})
	assert.Equal(market.ErrInvalidAccount, err)

	// rent not covered, the catalog write rolls back whole
	_, err = mkt.Mint(ctx, &market.Call{TraceID: "t", Caller: "alice.near", Deposit: decimal.Zero},
		&market.ItemCreation{ItemID: "song-1", Name: "x", Price: decimal.Zero})
	assert.True(market.IsErrInsufficientDeposit(err))
	item, err := db.ReadItem("song-1")
	assert.Nil(err)
	assert.Nil(item)
}
