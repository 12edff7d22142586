package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3jane-protocol/3jane-contracts/internal/auction"
)

func auctionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auction",
		Short: "Read Gnosis auction state",
	}

	var address string
	var decimals uint8
	minPrice := &cobra.Command{
		Use:   "min-price",
		Short: "Print the latest auction's minimum price, 18 decimals",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddress(address)
			if err != nil {
				return err
			}
			client, err := appCtx.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()
			price, err := auction.NewClient(client, addr).MinPrice(cmd.Context(), decimals)
			if err != nil {
				return err
			}
			fmt.Println(price)
			return nil
		},
	}
	minPrice.Flags().StringVar(&address, "auction", "GNOSIS_EASY_AUCTION", "auction contract address or symbol")
	minPrice.Flags().Uint8Var(&decimals, "decimals", 6, "bidding token decimals")

	cmd.AddCommand(minPrice)
	return cmd
}
