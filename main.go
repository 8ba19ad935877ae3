package main

import (
	"context"
	"flag"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/raidar/soulbound/market"
	"github.com/raidar/soulbound/store"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.soulbound/data", "database directory path")
	cp := flag.String("c", "~/.soulbound/config.toml", "configuration file path")
	flag.Parse()

	if strings.HasPrefix(*cp, "~/") {
		usr, _ := user.Current()
		*cp = filepath.Join(usr.HomeDir, (*cp)[2:])
	}
	conf, err := market.Setup(*cp)
	if err != nil {
		panic(err)
	}

	if strings.HasPrefix(*bp, "~/") {
		usr, _ := user.Current()
		*bp = filepath.Join(usr.HomeDir, (*bp)[2:])
	}
	db, err := store.OpenBadger(ctx, *bp)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	mkt, err := market.NewMarketplace(db, &LogEventSink{}, conf)
	if err != nil {
		panic(err)
	}

	pw := NewPaymentWorker(db)
	go pw.Run(ctx)

	server := NewServer(mkt)
	err = server.ListenAndServe(conf.Listen)
	if err != nil {
		panic(err)
	}
}

// LogEventSink writes mint and burn notifications to the log, nobody
// acknowledges them.
type LogEventSink struct{}

func (s *LogEventSink) Notify(ctx context.Context, evt *market.TokenEvent) {
	logger.Printf("EVENT %s %s %s\n", evt.Type, evt.HoldingID, evt.CreatedAt.Format("2006-01-02T15:04:05"))
}
