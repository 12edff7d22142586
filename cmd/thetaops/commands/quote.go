package commands

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

func quoteCmd() *cobra.Command {
	var src, dst, from, amount string
	var slippage float64
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch 1inch swap calldata",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.SwapRequest{ChainID: appCtx.ChainID, Slippage: slippage, DisableEstimate: true}
			var err error
			if req.Src, err = resolveAddress(src); err != nil {
				return err
			}
			if req.Dst, err = resolveAddress(dst); err != nil {
				return err
			}
			if req.From, err = resolveAddress(from); err != nil {
				return err
			}
			if req.Amount, err = parseBig("amount", amount); err != nil {
				return err
			}
			q, err := appCtx.Quoter.Swap(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(struct {
				DstAmount string         `json:"dstAmount"`
				To        common.Address `json:"to"`
				Data      hexutil.Bytes  `json:"data"`
				Gas       uint64         `json:"gas"`
			}{q.DstAmount.String(), q.To, q.Data, q.Gas})
		},
	}
	cmd.Flags().StringVar(&src, "src", "", "token sold, address or symbol")
	cmd.Flags().StringVar(&dst, "dst", "", "token bought, address or symbol")
	cmd.Flags().StringVar(&from, "from", "", "address executing the swap")
	cmd.Flags().StringVar(&amount, "amount", "", "amount of src in base units")
	cmd.Flags().Float64Var(&slippage, "slippage", 1, "max slippage percent")
	for _, f := range []string{"src", "dst", "from", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
