package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/abcfe/abcfe-wallet/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	passwordFlag string
	walletName   string
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet management commands",
		Long: `Commands for managing the wallet vault and its accounts.
These open the store directly, so stop the daemon first when it uses the leveldb backend.`,
	}

	cmd.PersistentFlags().StringVarP(&passwordFlag, "password", "p", "", "Wallet password (prompted when empty)")

	// Add subcommands
	cmd.AddCommand(walletCreateCmd())
	cmd.AddCommand(walletRestoreCmd())
	cmd.AddCommand(walletListCmd())
	cmd.AddCommand(walletAddAccountCmd())
	cmd.AddCommand(walletShowMnemonicCmd())
	cmd.AddCommand(walletRenameCmd())

	return cmd
}

// withManager opens the configured store for the duration of fn.
func withManager(fn func(wm *wallet.WalletManager) error) error {
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	return fn(wallet.NewWalletManager(store, wallet.WithWalletConfig(cfg.Wallet)))
}

func readPassword(prompt string, confirm bool) (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available, pass --password")
	}

	fmt.Print(prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Println("")
	if err != nil {
		return "", err
	}

	if confirm {
		fmt.Print("Repeat password: ")
		again, err := term.ReadPassword(fd)
		fmt.Println("")
		if err != nil {
			return "", err
		}
		if string(pw) != string(again) {
			return "", errors.New("passwords do not match")
		}
	}
	return string(pw), nil
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printAccount(account *wallet.Account) {
	fmt.Printf("Address: %s\n", account.Hex())
	fmt.Printf("Path: %s\n", account.Path)
}

// Create new wallet
func walletCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new wallet with mnemonic",
		Run: func(cmd *cobra.Command, args []string) {
			err := withManager(func(wm *wallet.WalletManager) error {
				password, err := readPassword("New password: ", true)
				if err != nil {
					return err
				}

				mnemonic, account, err := wm.CreateWallet(cmd.Context(), walletName, password)
				if err != nil {
					if errors.Is(err, wallet.ErrWalletExists) {
						fmt.Println("Use 'wallet restore' only on an empty store.")
					}
					return err
				}

				fmt.Println("=== New Wallet Created ===")
				fmt.Println("")
				fmt.Println("IMPORTANT: Write down your mnemonic phrase and keep it safe!")
				fmt.Println("If you lose it, you will lose access to your wallet forever.")
				fmt.Println("")
				fmt.Printf("Mnemonic: %s\n", mnemonic)
				fmt.Println("")
				fmt.Println("=== First Account ===")
				printAccount(account)
				return nil
			})
			if err != nil {
				fmt.Printf("Failed to create wallet: %v\n", err)
			}
		},
	}
	cmd.Flags().StringVarP(&walletName, "name", "n", "", "Wallet display name")
	return cmd
}

// Restore wallet from mnemonic
func walletRestoreCmd() *cobra.Command {
	var (
		mnemonic string
		count    uint32
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore wallet from mnemonic phrase",
		Run: func(cmd *cobra.Command, args []string) {
			err := withManager(func(wm *wallet.WalletManager) error {
				if mnemonic == "" {
					line, err := readLine("Mnemonic: ")
					if err != nil {
						return err
					}
					mnemonic = line
				}

				password, err := readPassword("New password: ", true)
				if err != nil {
					return err
				}

				accounts, err := wm.RestoreWallet(cmd.Context(), mnemonic, walletName, password, count)
				if err != nil {
					return err
				}

				fmt.Println("=== Wallet Restored ===")
				fmt.Println("")
				for _, account := range accounts {
					fmt.Printf("[%d]\n", account.Index)
					printAccount(account)
					fmt.Println("")
				}
				return nil
			})
			if err != nil {
				fmt.Printf("Failed to restore wallet: %v\n", err)
			}
		},
	}
	cmd.Flags().StringVarP(&mnemonic, "mnemonic", "m", "", "Mnemonic phrase (prompted when empty)")
	cmd.Flags().StringVarP(&walletName, "name", "n", "", "Wallet display name")
	cmd.Flags().Uint32Var(&count, "count", 1, "Number of accounts to derive")
	return cmd
}

// List accounts
func walletListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts in the wallet",
		Run: func(cmd *cobra.Command, args []string) {
			err := withManager(func(wm *wallet.WalletManager) error {
				ok, err := wm.Vault().Exists()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("No wallet found. Use 'wallet create' to create a new wallet.")
					return nil
				}

				password, err := readPassword("Password: ", false)
				if err != nil {
					return err
				}

				accounts, name, err := wm.Accounts(cmd.Context(), password)
				if err != nil {
					return err
				}

				fmt.Println("=== Wallet Accounts ===")
				if name != "" {
					fmt.Printf("Name: %s\n", name)
				}
				fmt.Println("")
				for _, account := range accounts {
					fmt.Printf("[%d]\n", account.Index)
					fmt.Printf("  Address: %s\n", account.Hex())
					fmt.Printf("  Path: %s\n", account.Path)
					fmt.Println("")
				}
				return nil
			})
			if err != nil {
				fmt.Printf("Failed to list accounts: %v\n", err)
			}
		},
	}
}

// Add new account
func walletAddAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-account",
		Short: "Derive the next account",
		Run: func(cmd *cobra.Command, args []string) {
			err := withManager(func(wm *wallet.WalletManager) error {
				password, err := readPassword("Password: ", false)
				if err != nil {
					return err
				}

				account, err := wm.CreateAccount(cmd.Context(), password)
				if err != nil {
					return err
				}

				fmt.Println("=== New Account Added ===")
				fmt.Println("")
				fmt.Printf("Index: %d\n", account.Index)
				printAccount(account)
				return nil
			})
			if err != nil {
				fmt.Printf("Failed to add account: %v\n", err)
			}
		},
	}
}

// Show mnemonic
func walletShowMnemonicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-mnemonic",
		Short: "Show the wallet's mnemonic phrase",
		Run: func(cmd *cobra.Command, args []string) {
			err := withManager(func(wm *wallet.WalletManager) error {
				password, err := readPassword("Password: ", false)
				if err != nil {
					return err
				}

				mnemonic, err := wm.ExportMnemonic(cmd.Context(), password)
				if err != nil {
					return err
				}

				fmt.Println("=== Wallet Mnemonic ===")
				fmt.Println("")
				fmt.Println("WARNING: Never share your mnemonic with anyone!")
				fmt.Println("")
				fmt.Printf("Mnemonic: %s\n", mnemonic)
				return nil
			})
			if err != nil {
				fmt.Printf("Failed to get mnemonic: %v\n", err)
			}
		},
	}
}

func walletRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name>",
		Short: "Change the wallet display name",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := withManager(func(wm *wallet.WalletManager) error {
				return wm.Rename(cmd.Context(), args[0])
			})
			if err != nil {
				fmt.Printf("Failed to rename wallet: %v\n", err)
				return
			}
			fmt.Printf("Wallet renamed to %s\n", args[0])
		},
	}
}
