package domain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidPrivateKey is returned for keys that are not 32-byte secp256k1 scalars.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// WalletAddress derives the account address of a hex private key. A 0x prefix is accepted.
func WalletAddress(privateKeyHex string) (common.Address, error) {
	key := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	pk, err := crypto.HexToECDSA(key)
	if err != nil {
		return common.Address{}, errors.Join(ErrInvalidPrivateKey, err)
	}
	return crypto.PubkeyToAddress(pk.PublicKey), nil
}
