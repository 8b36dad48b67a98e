package main

import (
	"context"
	"fmt"
	"time"

	"github.com/abcfe/abcfe-wallet/chain"
	"github.com/abcfe/abcfe-wallet/config"
	"github.com/spf13/cobra"
)

func chainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Configured chain commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the chains the wallet can switch to",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.NewConfig(configFile)
			if err != nil {
				fmt.Printf("Failed to load config: %v\n", err)
				return
			}

			fmt.Println("=== Chains ===")
			fmt.Println("")
			for _, c := range cfg.Chains {
				d := chain.DescriptorFromConfig(c)
				marker := ""
				if c.ID == cfg.Common.DefaultChain {
					marker = " (default)"
				}
				fmt.Printf("[%s] %s%s\n", d.ID.Hex(), d.Name, marker)
				fmt.Printf("  URL: %s\n", d.URL)
				fmt.Printf("  Currency: %s\n", d.Currency.Symbol)
				if d.Explorer != "" {
					fmt.Printf("  Explorer: %s\n", d.Explorer)
				}
				fmt.Println("")
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check every configured endpoint reports its declared chain id",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.NewConfig(configFile)
			if err != nil {
				fmt.Printf("Failed to load config: %v\n", err)
				return
			}

			opts := chain.NodeOptionsFromConfig(cfg.Node)
			for _, c := range cfg.Chains {
				d := chain.DescriptorFromConfig(c)
				fmt.Printf("%-12s %s\n", d.Name, pingChain(cmd.Context(), d, opts))
			}
		},
	})

	return cmd
}

func pingChain(ctx context.Context, d chain.Descriptor, opts chain.NodeOptions) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	node, err := chain.DialNode(ctx, d, opts)
	if err != nil {
		return fmt.Sprintf("dial failed: %v", err)
	}
	defer node.Close()

	start := time.Now()
	id, err := node.ChainID(ctx)
	if err != nil {
		return fmt.Sprintf("unreachable: %v", err)
	}
	if id.Uint64() != uint64(d.ID) {
		return fmt.Sprintf("MISMATCH: endpoint reports %d", id.Uint64())
	}
	return fmt.Sprintf("ok (%s)", time.Since(start).Round(time.Millisecond))
}
