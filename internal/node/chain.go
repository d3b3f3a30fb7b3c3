package node

import (
	"fmt"
	"strconv"
	"time"

	"bitcoin-node-sim/internal/hashing"
	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/validation"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/shopspring/decimal"
)

const (
	blockInterval = 10 * time.Minute
	// getblock looks this far back from the tip for a matching hash.
	blockSearchDepth = 1000
)

func (n *Node) getBlockchainInfo(c *call) (interface{}, error) {
	tip := n.height(c.network)
	difficulty := 83148355189239.77
	if c.network == models.Testnet {
		difficulty = 1.0
	}
	return btcjson.GetBlockChainInfoResult{
		Chain:                c.network.ChainName(),
		Blocks:               int32(tip),
		Headers:              int32(tip),
		BestBlockHash:        hashing.BlockHash(c.network.ChainName(), tip).String(),
		Difficulty:           difficulty,
		MedianTime:           n.blockTime(c.network, tip-6).Unix(),
		VerificationProgress: 0.9999987,
		Pruned:               false,
		ChainWork:            fmt.Sprintf("%064x", tip*4295032833),
		SizeOnDisk:           tip * 720_000,
	}, nil
}

func (n *Node) getBlockCount(c *call) (interface{}, error) {
	return n.height(c.network), nil
}

func (n *Node) getBestBlockHash(c *call) (interface{}, error) {
	return hashing.BlockHash(c.network.ChainName(), n.height(c.network)).String(), nil
}

func (n *Node) getBlockHash(c *call) (interface{}, error) {
	height, err := strconv.ParseInt(c.arg(0), 10, 64)
	if err != nil {
		return nil, c.usage("height must be an integer")
	}
	if height < 0 || height > n.height(c.network) {
		return nil, c.usage("Block height out of range")
	}
	return hashing.BlockHash(c.network.ChainName(), height).String(), nil
}

// Block is the verbose getblock reply.
type Block struct {
	Hash              string   `json:"hash"`
	Confirmations     int64    `json:"confirmations"`
	Height            int64    `json:"height"`
	Version           int32    `json:"version"`
	MerkleRoot        string   `json:"merkleroot"`
	Time              int64    `json:"time"`
	Nonce             uint32   `json:"nonce"`
	Bits              string   `json:"bits"`
	NTx               int      `json:"nTx"`
	Tx                []string `json:"tx"`
	PreviousBlockHash string   `json:"previousblockhash,omitempty"`
	NextBlockHash     string   `json:"nextblockhash,omitempty"`
}

func (n *Node) getBlock(c *call) (interface{}, error) {
	want, err := chainhash.NewHashFromStr(c.arg(0))
	if err != nil {
		return nil, c.usage("blockhash must be a 64 character hex string")
	}

	chain := c.network.ChainName()
	tip := n.height(c.network)
	for height := tip; height >= 0 && height > tip-blockSearchDepth; height-- {
		hash := hashing.BlockHash(chain, height)
		if !hash.IsEqual(want) {
			continue
		}

		coinbase := hashing.SeededTxID("coinbase", chain, strconv.FormatInt(height, 10))
		block := Block{
			Hash:          hash.String(),
			Confirmations: tip - height + 1,
			Height:        height,
			Version:       0x20000000,
			MerkleRoot:    hashing.SeededTxID("merkle", coinbase),
			Time:          n.blockTime(c.network, height).Unix(),
			Nonce:         uint32(hash[0])<<24 | uint32(hash[1])<<16 | uint32(hash[2])<<8 | uint32(hash[3]),
			Bits:          "17034219",
			NTx:           1,
			Tx:            []string{coinbase},
		}
		if height > 0 {
			block.PreviousBlockHash = hashing.BlockHash(chain, height-1).String()
		}
		if height < tip {
			block.NextBlockHash = hashing.BlockHash(chain, height+1).String()
		}
		return block, nil
	}
	return nil, &NotFoundError{What: "Block not found"}
}

// blockTime places the tip at the current time and older blocks one
// interval apart.
func (n *Node) blockTime(network models.Network, height int64) time.Time {
	behind := n.height(network) - height
	return n.now().Add(-time.Duration(behind) * blockInterval).Truncate(time.Second)
}

func (n *Node) getConnectionCount(c *call) (interface{}, error) {
	return 8 + n.height(c.network)%5, nil
}

func (n *Node) estimateSmartFee(c *call) (interface{}, error) {
	target, err := strconv.ParseInt(c.arg(0), 10, 64)
	if err != nil || target < 1 {
		return nil, c.usage("conf_target must be a positive integer")
	}
	if target > 1008 {
		target = 1008
	}

	rate := decimal.RequireFromString("0.00025").Div(decimal.NewFromInt(target)).Round(8)
	if floor := decimal.RequireFromString("0.00001"); rate.LessThan(floor) {
		rate = floor
	}
	feeRate := rate.InexactFloat64()
	return btcjson.EstimateSmartFeeResult{FeeRate: &feeRate, Blocks: target}, nil
}

// AddressValidation is the validateaddress reply.
type AddressValidation struct {
	IsValid        bool   `json:"isvalid"`
	Address        string `json:"address,omitempty"`
	ScriptPubKey   string `json:"scriptPubKey,omitempty"`
	IsScript       bool   `json:"isscript"`
	IsWitness      bool   `json:"iswitness"`
	WitnessVersion *int   `json:"witness_version,omitempty"`
	WitnessProgram string `json:"witness_program,omitempty"`
	Error          string `json:"error,omitempty"`
}

// validateAddress reports invalid addresses in the result, not as an error.
func (n *Node) validateAddress(c *call) (interface{}, error) {
	addr, err := validation.ValidateAddress(c.arg(0), c.network)
	if err != nil {
		return AddressValidation{Error: err.Error()}, nil
	}

	res := AddressValidation{IsValid: true, Address: addr.EncodeAddress()}
	if script, err := txscript.PayToAddrScript(addr); err == nil {
		res.ScriptPubKey = fmt.Sprintf("%x", script)
	}
	switch a := addr.(type) {
	case *btcutil.AddressWitnessPubKeyHash:
		res.IsWitness, res.WitnessVersion = true, intPtr(0)
		res.WitnessProgram = fmt.Sprintf("%x", a.WitnessProgram())
	case *btcutil.AddressWitnessScriptHash:
		res.IsScript, res.IsWitness, res.WitnessVersion = true, true, intPtr(0)
		res.WitnessProgram = fmt.Sprintf("%x", a.WitnessProgram())
	case *btcutil.AddressTaproot:
		res.IsScript, res.IsWitness, res.WitnessVersion = true, true, intPtr(1)
		res.WitnessProgram = fmt.Sprintf("%x", a.WitnessProgram())
	case *btcutil.AddressScriptHash:
		res.IsScript = true
	}
	return res, nil
}
