package chain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"pitboss/pkg/errors"
)

// Deployments maps contract names to their deployed addresses, as written by
// the deployment tooling.
type Deployments struct {
	Network   string            `json:"network"`
	ChainID   int64             `json:"chain_id"`
	Contracts map[string]string `json:"contracts"`
}

// Well-known contract names in the deployments file.
const (
	ContractCrapsGame  = "CrapsGame"
	ContractBotManager = "BotManager"
	ContractHouseToken = "HouseToken"
	ContractMintPass   = "MintPass"
)

// LoadDeployments reads the deployment-address JSON file.
func LoadDeployments(path string) (*Deployments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read deployments file")
	}

	var d Deployments
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "failed to parse deployments file")
	}
	if len(d.Contracts) == 0 {
		return nil, fmt.Errorf("deployments file %s lists no contracts", path)
	}
	return &d, nil
}

// Address resolves a contract name to a checked address.
func (d *Deployments) Address(name string) (common.Address, error) {
	raw, ok := d.Contracts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", errors.ErrContractNotDeployed, name)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("deployments file has malformed address for %s: %s", name, raw)
	}
	return common.HexToAddress(raw), nil
}
