// One-shot probe: reads native and house token balances for the probe
// wallet straight from the chain. Exits non-zero on the first failed call.
package main

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
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
	if cfg.Chain.ProbeWallet == "" {
		log.Fatal("CHAIN_PROBE_WALLET is required")
	}
	if !common.IsHexAddress(cfg.Chain.ProbeWallet) {
		log.Fatalf("CHAIN_PROBE_WALLET is not a valid address: %s", cfg.Chain.ProbeWallet)
	}
	wallet := common.HexToAddress(cfg.Chain.ProbeWallet)

	fmt.Println("=========================================================")
	fmt.Println("PROBE: WALLET BALANCES")
	fmt.Println("=========================================================")
	fmt.Printf("RPC:    %s\n", cfg.Chain.RPCURL)
	fmt.Printf("Wallet: %s\n\n", wallet.Hex())

	ctx := context.Background()
	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.CallTimeout)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	block, err := client.BlockNumber(ctx)
	if err != nil {
		log.Fatalf("blockNumber failed: %v", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		log.Fatalf("chainId failed: %v", err)
	}
	fmt.Printf("Chain ID: %s  Block: %d\n\n", chainID, block)

	native, err := client.NativeBalance(ctx, wallet)
	if err != nil {
		log.Fatalf("getBalance failed: %v", err)
	}
	fmt.Printf("ETH: %s\n", formatUnits(native, 18))

	deployments, err := chain.LoadDeployments(cfg.Chain.DeploymentsFile)
	if err != nil {
		log.Fatalf("deployments load failed: %v", err)
	}

	houseToken, err := deployments.Address(chain.ContractHouseToken)
	if err != nil {
		log.Fatalf("deployments lookup failed: %v", err)
	}

	meta, err := client.ERC20Metadata(ctx, houseToken)
	if err != nil {
		log.Fatalf("token metadata read failed: %v", err)
	}
	balance, err := client.ERC20Balance(ctx, houseToken, wallet)
	if err != nil {
		log.Fatalf("balanceOf failed: %v", err)
	}
	supply, err := client.ERC20TotalSupply(ctx, houseToken)
	if err != nil {
		log.Fatalf("totalSupply failed: %v", err)
	}

	fmt.Printf("%s (%s): %s\n", meta.Symbol, houseToken.Hex(), formatUnits(balance, int(meta.Decimals)))
	fmt.Printf("Total supply: %s\n", formatUnits(supply, int(meta.Decimals)))
	fmt.Println("\nOK")
}

func formatUnits(raw *big.Int, decimals int) string {
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}
