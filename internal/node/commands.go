package node

import (
	"fmt"
	"strings"
)

// command is one row of the dispatch table.
type command struct {
	Name    string
	Usage   string
	Group   string
	MinArgs int
	Wallet  bool // needs an active wallet address
	Control bool // handled before the running check and in both modes
	Run     func(n *Node, c *call) (interface{}, error)
}

const (
	groupControl    = "Control"
	groupWallet     = "Wallet"
	groupBlockchain = "Blockchain"
	groupUtility    = "Utility"
)

var groupOrder = []string{groupControl, groupWallet, groupBlockchain, groupUtility}

var (
	commandList  []*command
	commandTable map[string]*command
)

func init() {
	commandList = []*command{
		{Name: "connect", Usage: "connect <url> <user> <pass>", Group: groupControl, MinArgs: 3, Control: true, Run: (*Node).connect},
		{Name: "disconnect", Usage: "disconnect", Group: groupControl, Control: true, Run: (*Node).disconnect},
		{Name: "bitcoind", Usage: "bitcoind", Group: groupControl, Control: true, Run: (*Node).startDaemon},
		{Name: "stop", Usage: "stop", Group: groupControl, Control: true, Run: (*Node).stopDaemon},
		{Name: "help", Usage: "help [command]", Group: groupControl, Run: (*Node).help},

		{Name: "getbalance", Usage: "getbalance", Group: groupWallet, Wallet: true, Run: (*Node).getBalance},
		{Name: "getnewaddress", Usage: "getnewaddress", Group: groupWallet, Run: (*Node).getNewAddress},
		{Name: "sendtoaddress", Usage: "sendtoaddress <address> <amount>", Group: groupWallet, MinArgs: 2, Wallet: true, Run: (*Node).sendToAddress},
		{Name: "sendmany", Usage: `sendmany "" {"address":amount,...}`, Group: groupWallet, MinArgs: 2, Wallet: true, Run: (*Node).sendMany},
		{Name: "generatetoaddress", Usage: "generatetoaddress <nblocks> [address]", Group: groupWallet, MinArgs: 1, Wallet: true, Run: (*Node).generateToAddress},
		{Name: "listtransactions", Usage: "listtransactions [label] [count] [skip]", Group: groupWallet, Wallet: true, Run: (*Node).listTransactions},
		{Name: "listreceivedbyaddress", Usage: "listreceivedbyaddress [minconf] [include_empty]", Group: groupWallet, Wallet: true, Run: (*Node).listReceivedByAddress},
		{Name: "listaddressgroupings", Usage: "listaddressgroupings", Group: groupWallet, Wallet: true, Run: (*Node).listAddressGroupings},
		{Name: "getaddressinfo", Usage: "getaddressinfo [address]", Group: groupWallet, Wallet: true, Run: (*Node).getAddressInfo},
		{Name: "importdescriptors", Usage: `importdescriptors [{"desc":"<descriptor>","timestamp":"now"},...]`, Group: groupWallet, MinArgs: 1, Run: (*Node).importDescriptors},
		{Name: "listunspent", Usage: "listunspent [minconf]", Group: groupWallet, Wallet: true, Run: (*Node).listUnspent},
		{Name: "getwalletinfo", Usage: "getwalletinfo", Group: groupWallet, Wallet: true, Run: (*Node).getWalletInfo},
		{Name: "dumpwallet", Usage: "dumpwallet <filename>", Group: groupWallet, MinArgs: 1, Wallet: true, Run: (*Node).dumpWallet},
		{Name: "encryptwallet", Usage: "encryptwallet <passphrase>", Group: groupWallet, MinArgs: 1, Run: (*Node).encryptWallet},

		{Name: "getblockchaininfo", Usage: "getblockchaininfo", Group: groupBlockchain, Run: (*Node).getBlockchainInfo},
		{Name: "getblockcount", Usage: "getblockcount", Group: groupBlockchain, Run: (*Node).getBlockCount},
		{Name: "getbestblockhash", Usage: "getbestblockhash", Group: groupBlockchain, Run: (*Node).getBestBlockHash},
		{Name: "getblock", Usage: "getblock <blockhash>", Group: groupBlockchain, MinArgs: 1, Run: (*Node).getBlock},
		{Name: "getblockhash", Usage: "getblockhash <height>", Group: groupBlockchain, MinArgs: 1, Run: (*Node).getBlockHash},
		{Name: "getconnectioncount", Usage: "getconnectioncount", Group: groupBlockchain, Run: (*Node).getConnectionCount},

		{Name: "createrawtransaction", Usage: `createrawtransaction [{"txid":"hex","vout":n},...] {"address":amount,...}`, Group: groupUtility, MinArgs: 2, Run: (*Node).createRawTransaction},
		{Name: "decoderawtransaction", Usage: "decoderawtransaction <hexstring>", Group: groupUtility, MinArgs: 1, Run: (*Node).decodeRawTransaction},
		{Name: "signrawtransactionwithwallet", Usage: "signrawtransactionwithwallet <hexstring>", Group: groupUtility, MinArgs: 1, Wallet: true, Run: (*Node).signRawTransaction},
		{Name: "sendrawtransaction", Usage: "sendrawtransaction <hexstring>", Group: groupUtility, MinArgs: 1, Run: (*Node).sendRawTransaction},
		{Name: "getrawtransaction", Usage: "getrawtransaction <txid> [verbose]", Group: groupUtility, MinArgs: 1, Run: (*Node).getRawTransaction},
		{Name: "estimatesmartfee", Usage: "estimatesmartfee <conf_target>", Group: groupUtility, MinArgs: 1, Run: (*Node).estimateSmartFee},
		{Name: "validateaddress", Usage: "validateaddress <address>", Group: groupUtility, MinArgs: 1, Run: (*Node).validateAddress},
	}

	commandTable = make(map[string]*command, len(commandList))
	for _, cmd := range commandList {
		commandTable[cmd.Name] = cmd
	}
}

// Commands lists the known command names in help order.
func Commands() []string {
	names := make([]string, 0, len(commandList))
	for _, group := range groupOrder {
		for _, cmd := range commandList {
			if cmd.Group == group {
				names = append(names, cmd.Name)
			}
		}
	}
	return names
}

func (n *Node) help(c *call) (interface{}, error) {
	if name := strings.ToLower(c.arg(0)); name != "" {
		cmd, ok := commandTable[name]
		if !ok {
			return nil, &UnknownCommandError{Command: name}
		}
		return cmd.Usage, nil
	}

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, group := range groupOrder {
		fmt.Fprintf(&b, "\n== %s ==\n", group)
		for _, cmd := range commandList {
			if cmd.Group == group {
				b.WriteString(cmd.Usage)
				b.WriteByte('\n')
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
