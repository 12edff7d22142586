package commands

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/3jane-protocol/3jane-contracts/internal/crypto"
	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign EIP-712 messages with the deployer key",
	}
	cmd.AddCommand(signPermitCmd(), signBidCmd())
	return cmd
}

func signPermitCmd() *cobra.Command {
	var token, spender, value, nonce, name, version string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "permit",
		Short: "Sign an EIP-2612 permit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			tokenAddr, err := resolveAddress(token)
			if err != nil {
				return err
			}
			spenderAddr, err := resolveAddress(spender)
			if err != nil {
				return err
			}
			amount, err := parseBig("value", value)
			if err != nil {
				return err
			}
			n, err := parseBig("nonce", nonce)
			if err != nil {
				return err
			}
			key, err := appCtx.Accounts.UnlockAccount(passphrase)
			if err != nil {
				return err
			}
			deadline := big.NewInt(time.Now().Add(ttl).Unix())
			cfg := crypto.PermitConfig{
				Nonce:   n,
				Name:    name,
				Version: version,
				ChainID: new(big.Int).SetUint64(uint64(appCtx.ChainID)),
			}
			sig, err := crypto.SignPermit(key, tokenAddr, spenderAddr, amount, deadline, cfg)
			if err != nil {
				return err
			}
			return printJSON(struct {
				domain.Permit
				domain.Signature
				Token common.Address `json:"token"`
			}{
				Permit:    domain.Permit{Owner: crypto.Address(key), Spender: spenderAddr, Value: amount, Nonce: n, Deadline: deadline},
				Signature: sig,
				Token:     tokenAddr,
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "USDC", "token address or symbol")
	cmd.Flags().StringVar(&spender, "spender", "", "spender address or symbol")
	cmd.Flags().StringVar(&value, "value", "", "amount in token units")
	cmd.Flags().StringVar(&nonce, "nonce", "0", "owner's permit nonce")
	cmd.Flags().StringVar(&name, "name", "", "token EIP-712 name (default \"USD Coin\")")
	cmd.Flags().StringVar(&version, "version", "", "token EIP-712 version (default \"2\")")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "time until the permit expires")
	_ = cmd.MarkFlagRequired("spender")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func signBidCmd() *cobra.Command {
	var swap, swapID, nonce, buyer, sell, buy, referrer string
	cmd := &cobra.Command{
		Use:   "bid",
		Short: "Sign a bid for a swap contract offer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			swapAddr, err := resolveAddress(swap)
			if err != nil {
				return err
			}
			bid := domain.Bid{}
			for _, f := range []struct {
				flag, val string
				dst       **big.Int
			}{
				{"swap-id", swapID, &bid.SwapID},
				{"nonce", nonce, &bid.Nonce},
				{"sell", sell, &bid.SellAmount},
				{"buy", buy, &bid.BuyAmount},
			} {
				if *f.dst, err = parseBig(f.flag, f.val); err != nil {
					return err
				}
			}
			key, err := appCtx.Accounts.UnlockAccount(passphrase)
			if err != nil {
				return err
			}
			bid.SignerWallet = crypto.Address(key)
			bid.Buyer = bid.SignerWallet
			if buyer != "" {
				if bid.Buyer, err = resolveAddress(buyer); err != nil {
					return err
				}
			}
			if referrer != "" {
				if bid.Referrer, err = resolveAddress(referrer); err != nil {
					return err
				}
			}
			signed, err := crypto.SignBid(key, new(big.Int).SetUint64(uint64(appCtx.ChainID)), swapAddr, bid)
			if err != nil {
				return err
			}
			return printJSON(signed)
		},
	}
	cmd.Flags().StringVar(&swap, "swap", "", "swap contract address")
	cmd.Flags().StringVar(&swapID, "swap-id", "", "offer id")
	cmd.Flags().StringVar(&nonce, "nonce", "1", "bid nonce")
	cmd.Flags().StringVar(&buyer, "buyer", "", "buyer address (default signer)")
	cmd.Flags().StringVar(&sell, "sell", "", "oTokens to buy, 8 decimals")
	cmd.Flags().StringVar(&buy, "buy", "", "bidding token to pay")
	cmd.Flags().StringVar(&referrer, "referrer", "", "referrer address")
	for _, f := range []string{"swap", "swap-id", "sell", "buy"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
