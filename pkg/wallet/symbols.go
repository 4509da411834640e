package wallet

type currencySymbol struct {
	name   string
	letter string
}

// currencySymbols maps Kraken altnames to a display name and glyph.
var currencySymbols = map[string]currencySymbol{
	// fiat
	"AUD": {"Australian Dollar", "A$"},
	"CAD": {"Canadian Dollar", "C$"},
	"CHF": {"Swiss Franc", "Fr."},
	"EUR": {"Euro", "€"},
	"GBP": {"Pound Sterling", "£"},
	"JPY": {"Japanese Yen", "¥"},
	"USD": {"US Dollar", "$"},

	// crypto
	"AAVE":  {"Aave", "Å"},
	"ALGO":  {"Algorand", "Ⱥ"},
	"ANT":   {"Aragon", "ȁ"},
	"REP":   {"Augur", "Ɍ"},
	"REPV2": {"Augur v2", "ɍ"},
	"BAT":   {"Basic Attention Token", "⟁"},
	"BAL":   {"Balancer", "ᙖ"},
	"XBT":   {"Bitcoin", "₿"},
	"BCH":   {"Bitcoin Cash", "฿"},
	"ADA":   {"Cardano", "₳"},
	"LINK":  {"Chainlink", "⬡"},
	"COMP":  {"Compound", "Ꮯ"},
	"ATOM":  {"Cosmos", "⚛"},
	"CRV":   {"Curve", "ᑕ"},
	"DAI":   {"Dai", "⬙"},
	"DASH":  {"Dash", "Đ"},
	"MANA":  {"Decentraland", "Ɯ"},
	"XDG":   {"Dogecoin", "Ð"},
	"EOS":   {"EOS", "Ȅ"},
	"ETH":   {"Ethereum", "Ξ"},
	"ETH2":  {"Ethereum 2", "Ξ"},
	"ETC":   {"Ethereum Classic", "ξ"},
	"FIL":   {"Filecoin", "ƒ"},
	"GNO":   {"Gnosis", "Ğ"},
	"ICX":   {"ICON", "𝗜"},
	"KAVA":  {"Kava", "Ҝ"},
	"KEEP":  {"Keep Network", "ķ"},
	"KSM":   {"Kusama", "Ķ"},
	"KNC":   {"Kyber Network", "Ƙ"},
	"LSK":   {"Lisk", "Ⱡ"},
	"LTC":   {"Litecoin", "Ł"},
	"MLN":   {"Melon", "M"},
	"XMR":   {"Monero", "ɱ"},
	"NANO":  {"Nano", "𝑁"},
	"OMG":   {"OmiseGO", "Ŏ"},
	"OXT":   {"Orchid", "Ö"},
	"PAXG":  {"PAX Gold", "ⓟ"},
	"DOT":   {"Polkadot", "●"},
	"QTUM":  {"Qtum", "ℚ"},
	"XRP":   {"Ripple", "Ʀ"},
	"SC":    {"Siacoin", "S"},
	"XLM":   {"Stellar Lumens", "*"},
	"STORJ": {"Storj", "Ŝ"},
	"SNX":   {"Synthetix", "Š"},
	"TBTC":  {"tBTC", "Ţ"},
	"USDT":  {"Tether", "₮"},
	"XTZ":   {"Tezos", "ꜩ"},
	"GRT":   {"The Graph", "⌗"},
	"TRX":   {"Tron", "Ť"},
	"UNI":   {"Uniswap", "Ǖ"},
	"USDC":  {"USD Coin", "ⓒ"},
	"WAVES": {"WAVES", "♦"},
	"YFI":   {"Yearn Finance", "Ƴ"},
	"ZEC":   {"Zcash", "ⓩ"},
}
