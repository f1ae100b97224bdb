package presets

import (
	"solana-crawler/internal/crawler"
	"solana-crawler/internal/solana"
)

// Program addresses the presets build on.
var (
	// CandyMachineProgramID is the Metaplex candy machine program.
	CandyMachineProgramID = solana.MustPubkey("cndyAnrLdpjq1Ssp1z8xxDsB8dxe7u4HL5Nxi2K5WXZ")

	// TokenMetadataProgramID is the Metaplex token metadata program.
	TokenMetadataProgramID = solana.MustPubkey("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

// CandyMachineMints returns a crawler that extracts the mint account of
// every NFT minted through the given candy machine. The mint instruction
// carries exactly 14 accounts and is the only candy machine instruction
// with that count; the mint sits at position 5.
func CandyMachineMints(client solana.RPCClient, candyMachine solana.Pubkey, opts ...crawler.Option) *crawler.Crawler {
	return crawler.New(client, candyMachine, opts...).
		AddTxFilter(crawler.NewTxHasProgramID(CandyMachineProgramID)).
		AddTxFilter(crawler.SuccessfulTxFilter{}).
		AddIxFilter(crawler.IxNumberAccountsEqualTo(14)).
		AddAccountIndex(crawler.AccountAt("mint", 5))
}

// TokenMetadataAddress derives the token metadata PDA for a mint.
func TokenMetadataAddress(mint solana.Pubkey) (solana.Pubkey, error) {
	seeds := [][]byte{
		[]byte("metadata"),
		TokenMetadataProgramID.Bytes(),
		mint.Bytes(),
	}
	addr, _, err := solana.FindProgramAddress(seeds, TokenMetadataProgramID)
	return addr, err
}
