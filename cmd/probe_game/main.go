// One-shot probe: reads the craps game contract's observable state. Exits
// non-zero on the first failed call.
package main

import (
	"context"
	"fmt"
	"log"
	"math/big"

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
	fmt.Println("PROBE: CRAPS GAME STATE")
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
	game, err := deployments.Address(chain.ContractCrapsGame)
	if err != nil {
		log.Fatalf("deployments lookup failed: %v", err)
	}
	fmt.Printf("CrapsGame: %s\n\n", game.Hex())

	state, err := client.CrapsState(ctx, game)
	if err != nil {
		log.Fatalf("game state read failed: %v", err)
	}

	fmt.Printf("Series:         %s\n", bigOrZero(state.Series))
	fmt.Printf("Phase:          %s\n", chain.CrapsPhaseName(state.Phase))
	fmt.Printf("Point:          %d\n", state.Point)
	fmt.Printf("House bankroll: %s\n", decimal.NewFromBigInt(bigOrZero(state.HouseBankroll), -18))
	fmt.Println("\nOK")
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
