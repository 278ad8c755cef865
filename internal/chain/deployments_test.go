package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitboss/pkg/errors"
)

func writeDeployments(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deployments.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDeployments(t *testing.T) {
	path := writeDeployments(t, `{
		"network": "local",
		"chain_id": 31337,
		"contracts": {
			"CrapsGame": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			"BotManager": "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
		}
	}`)

	d, err := LoadDeployments(path)
	require.NoError(t, err)
	assert.Equal(t, "local", d.Network)
	assert.Equal(t, int64(31337), d.ChainID)

	addr, err := d.Address(ContractCrapsGame)
	assert.NoError(t, err)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", addr.Hex())
}

func TestLoadDeploymentsMissingFile(t *testing.T) {
	_, err := LoadDeployments(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadDeploymentsEmptyContracts(t *testing.T) {
	path := writeDeployments(t, `{"network": "local", "contracts": {}}`)
	_, err := LoadDeployments(path)
	assert.Error(t, err)
}

func TestAddressUnknownContract(t *testing.T) {
	path := writeDeployments(t, `{
		"contracts": {"CrapsGame": "0x5FbDB2315678afecb367f032d93F642f64180aa3"}
	}`)
	d, err := LoadDeployments(path)
	require.NoError(t, err)

	_, err = d.Address(ContractMintPass)
	assert.ErrorIs(t, err, errors.ErrContractNotDeployed)
}

func TestAddressMalformed(t *testing.T) {
	path := writeDeployments(t, `{"contracts": {"CrapsGame": "not-an-address"}}`)
	d, err := LoadDeployments(path)
	require.NoError(t, err)

	_, err = d.Address(ContractCrapsGame)
	assert.Error(t, err)
}
