// Package testdata provides embedded test fixtures for use across all test packages.
package testdata

import (
	"embed"
	"path"
)

//go:embed tx/*.json
var txFiles embed.FS

// Transaction is a recorded mainnet/testnet command together with the hash
// the network computes over its exact bytes.
type Transaction struct {
	Name string
	// Path is the derivation path the command was signed with, in
	// 44'/626'/0' notation.
	Path string
	// Hash is the BLAKE2b-256 hash of the command, base64url without padding.
	Hash string
}

// JSON returns the command bytes.
func (t Transaction) JSON() []byte {
	data, err := txFiles.ReadFile(path.Join("tx", t.Name+".json"))
	if err != nil {
		panic(err)
	}
	return data
}

// Transactions lists every embedded command.
var Transactions = []Transaction{
	{Name: "simple-transfer", Path: "0/0", Hash: "fPSCfMUaoK1N31qwhwBFUPwG-YR_guPP894uixsNZgk"},
	{Name: "transfer-decimal", Path: "0/0", Hash: "u4kRsc0DEmRbOOG2gePtMADMTOGGtRsXrMQ2R4bAvk4"},
	{Name: "transfer-create", Path: "0/0", Hash: "SrjHkjfzLHLiOS-5_lcZvLOhiU42NynfAfezMzbeXsw"},
	{Name: "rotate", Path: "0/0", Hash: "WQImvdxCaI7U5Qy2U_3Mxoa3i-Lp-PyNu9aZNtXclHo"},
	{Name: "no-caps", Path: "44'/626'/0'", Hash: "EsF-vcYfXYn8-NpYIvBcOMYCfUxiV6wxECU5FWNFz5g"},
	{Name: "k-account", Path: "44'/626'/0'", Hash: "9VlNQ6wmY5UpfOcazQNGpBZDt9Cd_sl_DO0POpiBDvU"},
	{Name: "xchain", Path: "44'/626'/0'", Hash: "nw3YtHZ5EgogG2oQ9JbOOEqyhy7IN4cevGjdEKuWgQM"},
	{Name: "xchain-decimal", Path: "44'/626'/0'", Hash: "gaYu1-LR6N9V0bUt1u_N9p4cbm_dwy7IeHC52rD92gs"},
	{Name: "multiple-transfers", Path: "0/0", Hash: "cYmajadc0EPG3ifvKR1Yd_-wlG79UZirK47JOREfZhk"},
	{Name: "multiple-transfers-xchain", Path: "0/0", Hash: "AoXqSSMScM_u4glsmLV3C8Eawexbm2YEFgFMHYFzm4o"},
	{Name: "unknown-no-args", Path: "0/0", Hash: "hnaoFEVgtSMrwKbm2Ui4wnARtUwMo6rtB3fnvZGb8oE"},
	{Name: "unknown-three-args", Path: "0/0", Hash: "OEV1W2Adz7vvU3qYzV9V48pDhxRdFDi2KG4JXx73WTA"},
	{Name: "unknown-json-args", Path: "0/0", Hash: "5RygRqoczKtecEebMtaPLrulHa5aprNcjkRhMAAogNc"},
	{Name: "unknown-multiple", Path: "0/0", Hash: "QJDO0ks635Xpnq2GC85cqoQUxLgESujMgun7NUgrf5E"},
	{Name: "unknown-with-transfers", Path: "0/0", Hash: "yMXcVG1vcnLrbtdiKHI1MAYgrBgoDqr15YSRID70DyU"},
	{Name: "unknown-many-args", Path: "0/0", Hash: "Y2q38WX4sd5fWzw2knr7mfAltsaYxhWnDGtFaZ7NV40"},
}

// Lookup returns the fixture called name.
func Lookup(name string) Transaction {
	for _, tx := range Transactions {
		if tx.Name == name {
			return tx
		}
	}
	panic("testdata: unknown transaction " + name)
}

// TestSeedHex is the device seed used by tests (SLIP-0010 test vector 1).
const TestSeedHex = "000102030405060708090a0b0c0d0e0f"
