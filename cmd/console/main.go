// Interactive operator console. Wraps the contract probes and a couple of
// API checks behind a numbered menu so nobody has to remember flags during
// an incident.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"pitboss/internal/chain"
	"pitboss/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	apiBase := os.Getenv("CONSOLE_API_URL")
	if apiBase == "" {
		apiBase = "http://localhost:" + cfg.Server.Port
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println()
		fmt.Println("=========================================================")
		fmt.Println("PITBOSS OPERATOR CONSOLE")
		fmt.Println("=========================================================")
		fmt.Println(" 1. Probe wallet balances")
		fmt.Println(" 2. Probe craps game state")
		fmt.Println(" 3. Probe bot roster")
		fmt.Println(" 4. API health check")
		fmt.Println(" 5. System status")
		fmt.Println(" q. Quit")
		fmt.Print("> ")

		if !scanner.Scan() {
			return
		}
		choice := strings.TrimSpace(scanner.Text())

		switch choice {
		case "1":
			withChain(cfg, probeBalances)
		case "2":
			withChain(cfg, probeGame)
		case "3":
			withChain(cfg, probeBots)
		case "4":
			fetch(apiBase + "/health")
		case "5":
			fetch(apiBase + "/api/v1/system/status")
		case "q", "Q", "quit", "exit":
			fmt.Println("Bye")
			return
		case "":
			// ignore empty input
		default:
			fmt.Printf("Unknown option: %s\n", choice)
		}
	}
}

// withChain dials, loads deployments, runs one probe, and cleans up. Probe
// errors are printed and swallowed so the menu survives a dead node.
func withChain(cfg *config.Config, probe func(ctx context.Context, client *chain.Client, d *chain.Deployments) error) {
	if err := cfg.ValidateChain(); err != nil {
		fmt.Printf("chain not configured: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.CallTimeout)
	if err != nil {
		fmt.Printf("dial failed: %v\n", err)
		return
	}
	defer client.Close()

	deployments, err := chain.LoadDeployments(cfg.Chain.DeploymentsFile)
	if err != nil {
		fmt.Printf("deployments load failed: %v\n", err)
		return
	}

	if err := probe(ctx, client, deployments); err != nil {
		fmt.Printf("probe failed: %v\n", err)
	}
}

func probeBalances(ctx context.Context, client *chain.Client, d *chain.Deployments) error {
	wallet := os.Getenv("CHAIN_PROBE_WALLET")
	if !common.IsHexAddress(wallet) {
		return fmt.Errorf("CHAIN_PROBE_WALLET is not a valid address: %q", wallet)
	}
	addr := common.HexToAddress(wallet)

	native, err := client.NativeBalance(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Printf("Wallet %s\n", addr.Hex())
	fmt.Printf("ETH: %s\n", formatUnits(native, 18))

	houseToken, err := d.Address(chain.ContractHouseToken)
	if err != nil {
		return err
	}
	meta, err := client.ERC20Metadata(ctx, houseToken)
	if err != nil {
		return err
	}
	balance, err := client.ERC20Balance(ctx, houseToken, addr)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", meta.Symbol, formatUnits(balance, int(meta.Decimals)))
	return nil
}

func probeGame(ctx context.Context, client *chain.Client, d *chain.Deployments) error {
	game, err := d.Address(chain.ContractCrapsGame)
	if err != nil {
		return err
	}
	state, err := client.CrapsState(ctx, game)
	if err != nil {
		return err
	}

	fmt.Printf("CrapsGame %s\n", game.Hex())
	fmt.Printf("Series: %s  Phase: %s  Point: %d\n",
		state.Series, chain.CrapsPhaseName(state.Phase), state.Point)
	fmt.Printf("House bankroll: %s\n", formatUnits(state.HouseBankroll, 18))
	return nil
}

func probeBots(ctx context.Context, client *chain.Client, d *chain.Deployments) error {
	manager, err := d.Address(chain.ContractBotManager)
	if err != nil {
		return err
	}
	roster, err := client.BotRoster(ctx, manager)
	if err != nil {
		return err
	}
	if len(roster) == 0 {
		fmt.Println("No bots registered")
		return nil
	}
	for i, bot := range roster {
		status := "inactive"
		if bot.Active {
			status = "active"
		}
		fmt.Printf("%2d. %s  %s\n", i+1, bot.Address.Hex(), status)
	}
	return nil
}

func fetch(url string) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fmt.Printf("read failed: %v\n", err)
		return
	}
	fmt.Printf("HTTP %d\n%s\n", resp.StatusCode, string(body))
}

func formatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}
