package node

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bitcoin-node-sim/internal/hashing"
	"bitcoin-node-sim/internal/ledger"
	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/validation"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/shopspring/decimal"
)

var (
	// SimulatedFee is charged per recipient.
	SimulatedFee = decimal.RequireFromString("0.000015")
	BlockReward  = decimal.RequireFromString("6.25")
)

// MaxGenerateBlocks bounds one generatetoaddress call.
const MaxGenerateBlocks = 1000

func (n *Node) getBalance(c *call) (interface{}, error) {
	return ledger.CalculateBalance(n.store.GetHistory(c.network, c.wallet.Address)), nil
}

func (n *Node) getNewAddress(c *call) (interface{}, error) {
	if c.wallet.Address != "" {
		return c.wallet.Address, nil
	}
	return hashing.NewAddress(c.network.Params())
}

func (n *Node) sendToAddress(c *call) (interface{}, error) {
	recipient := strings.TrimSpace(c.arg(0))
	if recipient == "" {
		return nil, c.usage("address must not be empty")
	}
	amount, err := validation.ParseAmount(c.arg(1))
	if err != nil {
		return nil, c.usage(err.Error())
	}

	tx := models.Transaction{
		Type:    models.Send,
		Amount:  amount,
		Address: recipient,
		Fee:     SimulatedFee,
		Outputs: []models.TransactionIO{{Address: recipient, Amount: amount}},
	}
	return n.spend(c, tx)
}

func (n *Node) sendMany(c *call) (interface{}, error) {
	// the JSON map may have been split on spaces by the console
	raw := strings.Join(c.args[1:], " ")

	var outputs map[string]json.Number
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&outputs); err != nil || outputs == nil {
		return nil, ErrInvalidOutputMap
	}
	if len(outputs) == 0 {
		return nil, c.usage("Transaction must have at least one recipient")
	}

	addrs := make([]string, 0, len(outputs))
	for addr := range outputs {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	total := decimal.Zero
	outs := make([]models.TransactionIO, 0, len(addrs))
	for _, addr := range addrs {
		if strings.TrimSpace(addr) == "" {
			return nil, c.usage("address must not be empty")
		}
		amount, err := validation.ParseAmount(outputs[addr].String())
		if err != nil {
			return nil, c.usage(fmt.Sprintf("%s for %s", err, addr))
		}
		total = total.Add(amount)
		outs = append(outs, models.TransactionIO{Address: addr, Amount: amount})
	}

	tx := models.Transaction{
		Type:    models.Send,
		Amount:  total,
		Address: "Multiple Recipients",
		Fee:     SimulatedFee.Mul(decimal.NewFromInt(int64(len(outs)))),
		Outputs: outs,
	}
	return n.spend(c, tx)
}

// spend checks funds and appends tx, or changes nothing.
func (n *Node) spend(c *call, tx models.Transaction) (interface{}, error) {
	history := n.store.GetHistory(c.network, c.wallet.Address)
	balance := ledger.CalculateBalance(history)
	required := tx.Amount.Add(tx.Fee)
	if balance.LessThan(required) {
		return nil, &InsufficientFundsError{Balance: balance, Required: required}
	}

	tx.ID = hashing.NewTxID()
	tx.Timestamp = n.now()
	tx.Status = models.Completed
	tx.Confirmations = 0
	tx.Inputs = []models.TransactionIO{{Address: c.wallet.Address, Amount: required}}

	n.appendTransaction(c, history, tx)
	return tx.ID, nil
}

func (n *Node) appendTransaction(c *call, history []models.Transaction, tx models.Transaction) {
	n.store.SaveHistory(c.network, c.wallet.Address, append(history, tx))

	n.logger.Info().
		Str("network", c.network.String()).
		Str("wallet", c.wallet.Address).
		Str("txid", tx.ID).
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.StringFixed(8)).
		Msg("Transaction appended")
	n.publish(models.NodeEvent{
		Kind:        models.EventTransactionNew,
		Network:     c.network,
		Address:     c.wallet.Address,
		Transaction: &tx,
	})
}

func (n *Node) generateToAddress(c *call) (interface{}, error) {
	blocks, err := strconv.Atoi(c.arg(0))
	if err != nil || blocks < 1 {
		return nil, c.usage("nblocks must be a positive integer")
	}
	if blocks > MaxGenerateBlocks {
		return nil, c.usage(fmt.Sprintf("nblocks must not exceed %d", MaxGenerateBlocks))
	}
	reward := c.arg(1)
	if reward == "" {
		reward = c.wallet.Address
	}

	start := n.height(c.network)
	hashes := make([]string, 0, blocks)
	for i := 1; i <= blocks; i++ {
		hashes = append(hashes, hashing.BlockHash(c.network.ChainName(), start+int64(i)).String())
	}
	n.heights[c.network] = start + int64(blocks)

	if reward == c.wallet.Address {
		amount := BlockReward.Mul(decimal.NewFromInt(int64(blocks)))
		history := n.store.GetHistory(c.network, c.wallet.Address)
		n.appendTransaction(c, history, models.Transaction{
			ID:            hashing.NewTxID(),
			Type:          models.Receive,
			Amount:        amount,
			Timestamp:     n.now(),
			Address:       "coinbase",
			Status:        models.Completed,
			Confirmations: 1,
			Fee:           decimal.Zero,
			Outputs:       []models.TransactionIO{{Address: reward, Amount: amount}},
		})
	}
	return hashes, nil
}

func (n *Node) listTransactions(c *call) (interface{}, error) {
	count, skip := 10, 0
	var err error
	if s := c.arg(1); s != "" {
		if count, err = strconv.Atoi(s); err != nil || count < 0 {
			return nil, c.usage("count must be a non-negative integer")
		}
	}
	if s := c.arg(2); s != "" {
		if skip, err = strconv.Atoi(s); err != nil || skip < 0 {
			return nil, c.usage("skip must be a non-negative integer")
		}
	}

	history := n.store.GetHistory(c.network, c.wallet.Address)
	out := make([]models.Transaction, 0, min(count, max(len(history)-skip, 0)))
	for i := len(history) - 1 - skip; i >= 0 && len(out) < count; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (n *Node) listReceivedByAddress(c *call) (interface{}, error) {
	minConf := int64(1)
	if s := c.arg(0); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return nil, c.usage("minconf must be a non-negative integer")
		}
		minConf = v
	}
	includeEmpty := false
	if s := c.arg(1); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, c.usage("include_empty must be true or false")
		}
		includeEmpty = v
	}

	record := models.ReceivedByAddress{Address: c.wallet.Address, Amount: decimal.Zero, TxIDs: []string{}}
	for _, tx := range n.store.GetHistory(c.network, c.wallet.Address) {
		if tx.Type != models.Receive || tx.Status == models.Failed || tx.Confirmations < minConf {
			continue
		}
		record.Amount = record.Amount.Add(tx.Amount)
		record.TxIDs = append(record.TxIDs, tx.ID)
		// bitcoind reports the confirmations of the most recent receive
		record.Confirmations = tx.Confirmations
	}

	if record.Amount.IsZero() && !includeEmpty {
		return []models.ReceivedByAddress{}, nil
	}
	return []models.ReceivedByAddress{record}, nil
}

func (n *Node) listAddressGroupings(c *call) (interface{}, error) {
	balance := ledger.CalculateBalance(n.store.GetHistory(c.network, c.wallet.Address))
	return []models.AddressBalance{{Address: c.wallet.Address, Amount: balance}}, nil
}

type descriptorRequest struct {
	Desc      string          `json:"desc"`
	Timestamp json.RawMessage `json:"timestamp"`
	Label     string          `json:"label,omitempty"`
}

// importDescriptors derives the wallet address from the first descriptor.
// Same descriptor and network, same address.
func (n *Node) importDescriptors(c *call) (interface{}, error) {
	var requests []descriptorRequest
	raw := strings.Join(c.args, " ")
	if err := json.Unmarshal([]byte(raw), &requests); err != nil {
		return nil, c.usage("requests must be a JSON array")
	}
	if len(requests) == 0 {
		return nil, c.usage("at least one descriptor is required")
	}
	for i, req := range requests {
		if strings.TrimSpace(req.Desc) == "" {
			return nil, c.usage(fmt.Sprintf("request %d has no desc", i))
		}
	}

	address, err := hashing.DeriveAddress(requests[0].Desc, c.network.Params())
	if err != nil {
		return nil, err
	}
	n.logger.Info().
		Str("network", c.network.String()).
		Str("address", address).
		Int("descriptors", len(requests)).
		Msg("Descriptors imported")
	return address, nil
}

// AddressInfo is the getaddressinfo reply.
type AddressInfo struct {
	Address        string   `json:"address"`
	ScriptPubKey   string   `json:"scriptPubKey"`
	IsMine         bool     `json:"ismine"`
	IsWatchOnly    bool     `json:"iswatchonly"`
	Solvable       bool     `json:"solvable"`
	IsScript       bool     `json:"isscript"`
	IsChange       bool     `json:"ischange"`
	IsWitness      bool     `json:"iswitness"`
	WitnessVersion *int     `json:"witness_version,omitempty"`
	Labels         []string `json:"labels"`
}

func (n *Node) getAddressInfo(c *call) (interface{}, error) {
	address := c.arg(0)
	if address == "" {
		address = c.wallet.Address
	}
	mine := address == c.wallet.Address
	info := AddressInfo{
		Address:  address,
		IsMine:   mine,
		Solvable: mine,
		Labels:   []string{},
	}

	addr, err := validation.ValidateAddress(address, c.network)
	if err != nil {
		if !mine {
			return nil, &NotFoundError{What: "Invalid address"}
		}
		return info, nil
	}
	if script, err := txscript.PayToAddrScript(addr); err == nil {
		info.ScriptPubKey = fmt.Sprintf("%x", script)
	}
	switch addr.(type) {
	case *btcutil.AddressWitnessPubKeyHash, *btcutil.AddressWitnessScriptHash:
		info.IsWitness, info.WitnessVersion = true, intPtr(0)
	case *btcutil.AddressTaproot:
		info.IsWitness, info.WitnessVersion = true, intPtr(1)
	case *btcutil.AddressScriptHash:
		info.IsScript = true
	}
	return info, nil
}

func intPtr(v int) *int {
	return &v
}

func (n *Node) listUnspent(c *call) (interface{}, error) {
	minConf := int64(1)
	if s := c.arg(0); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return nil, c.usage("minconf must be a non-negative integer")
		}
		minConf = v
	}

	var script string
	if addr, err := validation.ValidateAddress(c.wallet.Address, c.network); err == nil {
		if pk, err := txscript.PayToAddrScript(addr); err == nil {
			script = fmt.Sprintf("%x", pk)
		}
	}

	out := []btcjson.ListUnspentResult{}
	for _, u := range ledger.UnspentOutputs(n.store.GetHistory(c.network, c.wallet.Address)) {
		if u.Confirmations < minConf {
			continue
		}
		out = append(out, btcjson.ListUnspentResult{
			TxID:          u.TxID,
			Vout:          u.Vout,
			Address:       c.wallet.Address,
			ScriptPubKey:  script,
			Amount:        u.Amount.InexactFloat64(),
			Confirmations: u.Confirmations,
			Spendable:     true,
		})
	}
	return out, nil
}

// WalletInfo is the getwalletinfo reply.
type WalletInfo struct {
	WalletName         string          `json:"walletname"`
	WalletVersion      int             `json:"walletversion"`
	Balance            decimal.Decimal `json:"balance"`
	UnconfirmedBalance decimal.Decimal `json:"unconfirmed_balance"`
	ImmatureBalance    decimal.Decimal `json:"immature_balance"`
	TxCount            int             `json:"txcount"`
	KeyPoolOldest      int64           `json:"keypoololdest"`
	KeyPoolSize        int             `json:"keypoolsize"`
	UnlockedUntil      *int64          `json:"unlocked_until,omitempty"`
	Descriptors        bool            `json:"descriptors"`
}

func (n *Node) getWalletInfo(c *call) (interface{}, error) {
	history := n.store.GetHistory(c.network, c.wallet.Address)

	unconfirmed := decimal.Zero
	for _, tx := range history {
		if tx.Type == models.Receive && tx.Status == models.Pending {
			unconfirmed = unconfirmed.Add(tx.Amount)
		}
	}

	info := WalletInfo{
		WalletName:         c.network.WalletName(),
		WalletVersion:      169900,
		Balance:            ledger.CalculateBalance(history),
		UnconfirmedBalance: unconfirmed,
		ImmatureBalance:    decimal.Zero,
		TxCount:            len(history),
		KeyPoolOldest:      n.now().Unix(),
		KeyPoolSize:        1000,
		Descriptors:        true,
	}
	if len(history) > 0 {
		info.KeyPoolOldest = history[0].Timestamp.Unix()
	}
	if n.encrypted[walletKey(c)] {
		locked := int64(0)
		info.UnlockedUntil = &locked
	}
	return info, nil
}

func (n *Node) dumpWallet(c *call) (interface{}, error) {
	filename := c.arg(0)
	if strings.TrimSpace(filename) == "" {
		return nil, c.usage("filename cannot be empty")
	}
	if n.encrypted[walletKey(c)] {
		return nil, &WalletStateError{Message: "Error: Please enter the wallet passphrase with walletpassphrase first."}
	}
	return "Wallet dumped to file: " + filename, nil
}

func (n *Node) encryptWallet(c *call) (interface{}, error) {
	if c.wallet.Address == "" {
		return nil, ErrNoWallet
	}
	if strings.TrimSpace(c.arg(0)) == "" {
		return nil, c.usage("passphrase cannot be empty")
	}
	key := walletKey(c)
	if n.encrypted[key] {
		return nil, &WalletStateError{Message: "Error: running with an encrypted wallet, but encryptwallet was called."}
	}
	n.encrypted[key] = true
	return "wallet encrypted; The keypool has been flushed and a new HD seed was generated. You need to make a new backup.", nil
}

func walletKey(c *call) string {
	return c.network.String() + ":" + c.wallet.Address
}
