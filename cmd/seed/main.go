// Seeding tool for local development: opens a demo session, records a few
// bot and player bets, settles it, and parks one redemption in the backlog.
//
// Reads DATABASE_URL and other core config via pitboss/pkg/config
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"pitboss/internal/redemption"
	"pitboss/internal/repository/postgres"
	"pitboss/internal/session"
	"pitboss/pkg/config"
	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
)

func main() {
	log := logger.New("seed")

	cfg := config.Load()
	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	sessionRepo := postgres.NewSessionRepository(db)
	botRepo := postgres.NewBotRepository(db)
	playerRepo := postgres.NewPlayerRepository(db)
	redemptionRepo := postgres.NewRedemptionRepository(db)

	sessionService := session.NewService(sessionRepo, botRepo, playerRepo, log)
	redemptionService := redemption.NewService(redemptionRepo, log)
	ctx := context.Background()

	player := getenv("SEED_PLAYER", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	botAlice := getenv("SEED_BOT_ALICE", "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	botBob := getenv("SEED_BOT_BOB", "0x90F79bf6EB2c4f870365E785982E1f101E93b906")

	sess, err := sessionService.OpenSession(ctx, &session.OpenSessionRequest{
		GameType: domain.GameTypeCraps,
		Metadata: domain.Metadata{"seeded": true},
	})
	if err != nil {
		log.Fatal("OpenSession failed", map[string]interface{}{"error": err.Error()})
	}
	fmt.Printf("Opened session %s (%s)\n", sess.SessionCode, sess.ID)

	bets := []session.RecordBetRequest{
		{SessionID: sess.ID, BotName: "alice", BotAddress: botAlice, Wagered: dec("100"), Paid: dec("195")},
		{SessionID: sess.ID, BotName: "alice", BotAddress: botAlice, Wagered: dec("100"), Paid: dec("0")},
		{SessionID: sess.ID, BotName: "bob", BotAddress: botBob, Wagered: dec("50"), Paid: dec("48")},
		{SessionID: sess.ID, PlayerAddress: player, Wagered: dec("25"), Paid: dec("50")},
		{SessionID: sess.ID, PlayerAddress: player, Wagered: dec("25"), Paid: dec("0")},
	}
	for i := range bets {
		if _, err := sessionService.RecordBet(ctx, &bets[i]); err != nil {
			log.Fatal("RecordBet failed", map[string]interface{}{
				"error": err.Error(),
				"index": i,
			})
		}
	}
	fmt.Printf("Recorded %d bets\n", len(bets))

	settled, err := sessionService.SettleSession(ctx, &session.SettleSessionRequest{SessionID: sess.ID})
	if err != nil {
		log.Fatal("SettleSession failed", map[string]interface{}{"error": err.Error()})
	}
	fmt.Printf("Settled: wagered=%s paid=%s house_edge=%s\n",
		settled.TotalWagered, settled.TotalPaid, settled.HouseEdge)

	red, err := redemptionService.RequestRedemption(ctx, &redemption.RequestRedemptionRequest{
		PassTokenID:  7,
		OwnerAddress: player,
	})
	if err != nil {
		if errors.Is(err, errors.ErrRedemptionAlreadyExists) {
			fmt.Println("Redemption already seeded, skipping")
		} else {
			log.Fatal("RequestRedemption failed", map[string]interface{}{"error": err.Error()})
		}
	} else {
		fmt.Printf("Redemption requested for pass %d (%s)\n", red.PassTokenID, red.ID)
	}

	fmt.Println("OK: demo data seeded")
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
