package amm

// Accounts and assets of the development genesis.
const (
	DevNative     = "0x1000000000000000000000000000000000000001"
	DevBTC        = "0x2000000000000000000000000000000000000002"
	DevDOT        = "0x3000000000000000000000000000000000000003"
	DevETH        = "0x4000000000000000000000000000000000000004"
	DevController = "0xC0ffee0000000000000000000000000000000001"
	DevAlice      = "0xA11ce00000000000000000000000000000000001"
	DevBob        = "0xB0b0000000000000000000000000000000000002"
)

// DevGenesis is a small three-asset system: BTC (8 decimals) and ETH (18)
// supported, DOT (12) registered but unsupported. Alice and Bob each hold a
// million of every asset and the reserve holds 100,000 native.
func DevGenesis() Genesis {
	g := Genesis{
		Native: AssetSpec{Address: DevNative, Name: "Hub Native", Symbol: "HUB", Decimals: 18},
		Assets: []AssetSpec{
			{Address: DevBTC, Name: "Bitcoin", Symbol: "BTC", Decimals: 8},
			{Address: DevDOT, Name: "Polkadot", Symbol: "DOT", Decimals: 12},
			{Address: DevETH, Name: "Ether", Symbol: "ETH", Decimals: 18},
		},
		Principals:     Principals{Controller: DevController},
		FeeModel:       "slip",
		ILPolicy:       "cap",
		ReserveFunding: "100000",
		Supported:      []string{DevBTC, DevETH},
	}
	for _, holder := range []string{DevAlice, DevBob} {
		for _, asset := range []string{DevNative, DevBTC, DevDOT, DevETH} {
			g.Balances = append(g.Balances, BalanceSpec{Holder: holder, Asset: asset, Amount: "1000000"})
		}
	}
	return g
}
