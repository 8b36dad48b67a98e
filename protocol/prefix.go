package protocol

const (
	// Encrypted mnemonic record: {"encryptedMnemonic": "..."}
	KeyWalletData = "wallet-data"

	// Derivation counter and wallet label: {"currentIndex": n, "walletName": "..."}
	KeyCurrentIndex = "currentIndex"
)

// Well-known chain ids
const (
	ChainIDMainnet ChainID = 1
	ChainIDSepolia ChainID = 11155111
)
