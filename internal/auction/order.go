package auction

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// OrderSize is the packed width of an order: 8 bytes of user id followed by
// two 12-byte amounts.
const OrderSize = 32

const amountBits = 96

// ErrAmountOverflow is returned when an amount does not fit in 96 bits.
var ErrAmountOverflow = errors.New("order amount exceeds 96 bits")

// Order is a batch-auction sell order as stored on chain.
type Order struct {
	UserID     uint64
	BuyAmount  *uint256.Int
	SellAmount *uint256.Int
}

// QueueStartElement is the sentinel order that heads every auction's order
// queue; it is passed as the previous order hint for new bids.
var QueueStartElement = [OrderSize]byte{31: 1}

// EncodeOrder packs o as userId(8) || buyAmount(12) || sellAmount(12), big-endian.
func EncodeOrder(o Order) ([OrderSize]byte, error) {
	var out [OrderSize]byte
	binary.BigEndian.PutUint64(out[:8], o.UserID)
	if err := putAmount(out[8:20], o.BuyAmount); err != nil {
		return out, fmt.Errorf("buy amount: %w", err)
	}
	if err := putAmount(out[20:32], o.SellAmount); err != nil {
		return out, fmt.Errorf("sell amount: %w", err)
	}
	return out, nil
}

func putAmount(dst []byte, v *uint256.Int) error {
	if v == nil {
		return nil
	}
	if v.BitLen() > amountBits {
		return fmt.Errorf("%w: %s", ErrAmountOverflow, v.Dec())
	}
	b := v.Bytes32()
	copy(dst, b[32-len(dst):])
	return nil
}

// DecodeOrder unpacks an order produced by EncodeOrder.
func DecodeOrder(b [OrderSize]byte) Order {
	return Order{
		UserID:     binary.BigEndian.Uint64(b[:8]),
		BuyAmount:  new(uint256.Int).SetBytes(b[8:20]),
		SellAmount: new(uint256.Int).SetBytes(b[20:32]),
	}
}

// EncodeOrderHex returns the 0x-prefixed hex form of EncodeOrder.
func EncodeOrderHex(o Order) (string, error) {
	b, err := EncodeOrder(o)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b[:]), nil
}

// ParseOrder decodes a 32-byte hex order, with or without 0x.
func ParseOrder(s string) (Order, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*OrderSize {
		return Order{}, fmt.Errorf("order must be %d hex digits, got %d", 2*OrderSize, len(s))
	}
	var b [OrderSize]byte
	if _, err := hex.Decode(b[:], []byte(s)); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	return DecodeOrder(b), nil
}

// Equal reports whether o and other encode to the same bytes.
func (o Order) Equal(other Order) bool {
	return o.UserID == other.UserID && amountEq(o.BuyAmount, other.BuyAmount) && amountEq(o.SellAmount, other.SellAmount)
}

func amountEq(a, b *uint256.Int) bool {
	if a == nil {
		a = new(uint256.Int)
	}
	if b == nil {
		b = new(uint256.Int)
	}
	return a.Eq(b)
}
