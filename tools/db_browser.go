package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/abcfe/abcfe-wallet/wallet"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run tools/db_browser.go <data_dir> [command]")
		fmt.Println("Commands:")
		fmt.Println("  meta     - Show wallet records (ciphertext is never printed)")
		fmt.Println("  keys     - List all keys with value sizes")
		fmt.Println("  get <key> - Show a raw value")
		fmt.Println("  all      - Show all data")
		return
	}

	dataDir := utils.ExpandHome(os.Args[1])
	command := "meta"
	if len(os.Args) > 2 {
		command = os.Args[2]
	}

	// Open LevelDB
	db, err := storage.OpenLevelDB(dataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Database opened: %s\n\n", dataDir)

	switch command {
	case "meta":
		showMetadata(db)
	case "keys":
		listKeys(db)
	case "get":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run tools/db_browser.go <data_dir> get <key>")
			return
		}
		showValue(db, os.Args[3])
	case "all":
		showMetadata(db)
		listKeys(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
	}
}

func showMetadata(db *storage.DB) {
	fmt.Println("=== WALLET ===")

	data, err := db.Get(prt.KeyWalletData)
	if err != nil {
		fmt.Printf("Mnemonic record: Not found (%v)\n", err)
	} else {
		var rec wallet.MnemonicRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			fmt.Printf("Mnemonic record: corrupt (%v)\n", err)
		} else {
			showEnvelope(rec.EncryptedMnemonic)
		}
	}

	fmt.Println()
	fmt.Println("=== INDEX ===")

	data, err = db.Get(prt.KeyCurrentIndex)
	if err != nil {
		fmt.Printf("Index record: Not found (%v)\n", err)
	} else {
		var rec wallet.IndexRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			fmt.Printf("Index record: corrupt (%v)\n", err)
		} else {
			fmt.Printf("Current Index: %d\n", rec.CurrentIndex)
			fmt.Printf("Wallet Name: %q\n", rec.WalletName)
			if rec.CurrentIndex > 0 {
				fmt.Printf("Last Path: %s\n", wallet.AccountPath(rec.CurrentIndex-1))
			}
		}
	}

	fmt.Println()
}

func showEnvelope(cipherText string) {
	env, err := wallet.InspectEnvelope(cipherText)
	if err != nil {
		fmt.Printf("Envelope: invalid (%v)\n", err)
		return
	}

	fmt.Printf("Envelope Size: %d bytes\n", len(cipherText))
	fmt.Printf("Cipher: %s\n", env.Cipher)
	fmt.Printf("KDF: %s (n=%d r=%d p=%d dklen=%d)\n",
		env.KDF, env.KDFParams.N, env.KDFParams.R, env.KDFParams.P, env.KDFParams.DkLen)
	fmt.Printf("MAC: %s\n", env.MAC)
}

func listKeys(db *storage.DB) {
	fmt.Println("=== KEYS ===")

	iter := db.Raw().NewIterator(nil, nil)
	defer iter.Release()

	count := 0
	for iter.Next() {
		fmt.Printf("%-20s %d bytes\n", string(iter.Key()), len(iter.Value()))
		count++
	}
	if err := iter.Error(); err != nil {
		fmt.Printf("Iteration failed: %v\n", err)
	}
	fmt.Printf("Total keys: %d\n\n", count)
}

func showValue(db *storage.DB, key string) {
	data, err := db.Get(key)
	if err != nil {
		fmt.Printf("Key not found: %v\n", err)
		return
	}

	if key == prt.KeyWalletData {
		fmt.Println("Refusing to print the encrypted mnemonic, use 'meta'")
		return
	}
	fmt.Println(string(data))
}
