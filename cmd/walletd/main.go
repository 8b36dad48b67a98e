package main

import (
	"fmt"
	"os"

	"github.com/abcfe/abcfe-wallet/app"
	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/spf13/cobra"
)

// Version info (Injected from Makefile)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Println("Failed to execute command:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:     "walletd",
		Short:   "ABCFe local wallet daemon",
		Long:    `Self-custodial Ethereum wallet: encrypted mnemonic vault, BIP-44 accounts and an EIP-1193 JSON-RPC provider for dapps.`,
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Run: func(cmd *cobra.Command, args []string) {
			runWallet()
		},
	}

	// Register global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(daemonCmd())
	rootCmd.AddCommand(walletCmd())
	rootCmd.AddCommand(chainCmd())

	return rootCmd
}

func runWallet() {
	application, err := app.New(configFile)
	if err != nil {
		fmt.Println("Failed to initialize application:", err)
		os.Exit(1)
	}

	application.SigHandler()
	logger.Info("Wallet daemon start.")

	if err := application.NewRest(); err != nil {
		logger.Error("Failed to start services: ", err)
		application.Terminate()
		os.Exit(1)
	}

	application.Wait()
	logger.Info("Wallet daemon terminated.")
}
