// One-shot probe: walks the bot manager's roster and prints each bot's
// address, active flag, and bankroll. Exits non-zero on the first failed call.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"pitboss/internal/chain"
	"pitboss/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.ValidateChain(); err != nil {
		log.Fatalf("Invalid chain configuration: %v", err)
	}

	fmt.Println("=========================================================")
	fmt.Println("PROBE: BOT ROSTER")
	fmt.Println("=========================================================")
	fmt.Printf("RPC: %s\n\n", cfg.Chain.RPCURL)

	ctx := context.Background()
	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.CallTimeout)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	deployments, err := chain.LoadDeployments(cfg.Chain.DeploymentsFile)
	if err != nil {
		log.Fatalf("deployments load failed: %v", err)
	}
	manager, err := deployments.Address(chain.ContractBotManager)
	if err != nil {
		log.Fatalf("deployments lookup failed: %v", err)
	}
	fmt.Printf("BotManager: %s\n\n", manager.Hex())

	roster, err := client.BotRoster(ctx, manager)
	if err != nil {
		log.Fatalf("roster read failed: %v", err)
	}
	if len(roster) == 0 {
		fmt.Println("No bots registered")
		return
	}

	for i, bot := range roster {
		status := "inactive"
		if bot.Active {
			status = "active"
		}
		balance, err := client.NativeBalance(ctx, bot.Address)
		if err != nil {
			log.Fatalf("getBalance failed for bot %s: %v", bot.Address.Hex(), err)
		}
		fmt.Printf("%2d. %s  %-8s  %s ETH\n", i+1, bot.Address.Hex(), status,
			decimal.NewFromBigInt(balance, -18))
	}
	fmt.Printf("\n%d bots\nOK\n", len(roster))
}
