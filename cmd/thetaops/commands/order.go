package commands

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/3jane-protocol/3jane-contracts/internal/auction"
)

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Encode and decode Gnosis auction orders",
	}

	var user uint64
	var buy, sell string
	encode := &cobra.Command{
		Use:   "encode",
		Short: "Pack an order into its bytes32 form",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := auction.Order{UserID: user}
			var err error
			if o.BuyAmount, err = uint256.FromDecimal(buy); err != nil {
				return fmt.Errorf("--buy: %w", err)
			}
			if o.SellAmount, err = uint256.FromDecimal(sell); err != nil {
				return fmt.Errorf("--sell: %w", err)
			}
			s, err := auction.EncodeOrderHex(o)
			if err != nil {
				return err
			}
			fmt.Println(s)
			return nil
		},
	}
	encode.Flags().Uint64Var(&user, "user", 0, "auction user id")
	encode.Flags().StringVar(&buy, "buy", "0", "buy amount")
	encode.Flags().StringVar(&sell, "sell", "0", "sell amount")

	decode := &cobra.Command{
		Use:   "decode <bytes32>",
		Short: "Unpack a bytes32 order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := auction.ParseOrder(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("userId:     %d\nbuyAmount:  %s\nsellAmount: %s\n", o.UserID, o.BuyAmount.Dec(), o.SellAmount.Dec())
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}
