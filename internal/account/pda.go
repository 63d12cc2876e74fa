package account

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the address the game program is deployed at.
var ProgramID = solana.MustPublicKeyFromBase58("CM9y2DreJSMqzoRRrLkWEZzTB9ve5D4gQHcPPxrw8mxg")

var (
	gameSeed   = []byte("game")
	vaultSeed  = []byte("vault")
	configSeed = []byte("steal-config")
)

// Addresses are the program-derived accounts of one deployment.
type Addresses struct {
	Game       solana.PublicKey
	GameBump   uint8
	Vault      solana.PublicKey
	VaultBump  uint8
	Config     solana.PublicKey
	ConfigBump uint8
	ProgramID  solana.PublicKey
}

// Derive finds the game, vault and config addresses for programID.
func Derive(programID solana.PublicKey) (Addresses, error) {
	a := Addresses{ProgramID: programID}
	var err error
	if a.Game, a.GameBump, err = solana.FindProgramAddress([][]byte{gameSeed}, programID); err != nil {
		return Addresses{}, fmt.Errorf("derive game address: %w", err)
	}
	if a.Vault, a.VaultBump, err = solana.FindProgramAddress([][]byte{vaultSeed}, programID); err != nil {
		return Addresses{}, fmt.Errorf("derive vault address: %w", err)
	}
	if a.Config, a.ConfigBump, err = solana.FindProgramAddress([][]byte{configSeed}, programID); err != nil {
		return Addresses{}, fmt.Errorf("derive config address: %w", err)
	}
	return a, nil
}
