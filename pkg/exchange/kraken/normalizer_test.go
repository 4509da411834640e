package kraken

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenex/pkg/core"
)

func TestFixFloatTypes(t *testing.T) {
	input := map[string]any{
		"price":  "30000.1",
		"neg":    "-0.5",
		"int":    "42",
		"pair":   "XXBTZUSD",
		"txid":   "OQCLML-BW3P3-BUCMWZ",
		"dotted": "1.2.3",
		"empty":  "",
		"minus":  "-",
		"nested": []any{"1.5", map[string]any{"fee": "0.0026"}, true, 7.0},
	}

	got := FixFloatTypes(input).(map[string]any)

	assert.Equal(t, 30000.1, got["price"])
	assert.Equal(t, -0.5, got["neg"])
	assert.Equal(t, 42.0, got["int"])
	assert.Equal(t, "XXBTZUSD", got["pair"])
	assert.Equal(t, "OQCLML-BW3P3-BUCMWZ", got["txid"])
	assert.Equal(t, "1.2.3", got["dotted"], "unparseable numerics stay strings")
	assert.Equal(t, "", got["empty"])
	assert.Equal(t, "-", got["minus"])

	nested := got["nested"].([]any)
	assert.Equal(t, 1.5, nested[0])
	assert.Equal(t, 0.0026, nested[1].(map[string]any)["fee"])
	assert.Equal(t, true, nested[2])
	assert.Equal(t, 7.0, nested[3])
}

func TestNormalize_KeepsLastAsString(t *testing.T) {
	raw := json.RawMessage(`{"XXBTZUSD":[["30000.1","0.5",1688671200.1234,"b","l",""]],"last":"1688671969993150842"}`)

	got, err := Normalize(raw)
	require.NoError(t, err)

	obj := got.(map[string]any)
	assert.Equal(t, "1688671969993150842", obj["last"])
	rows := obj["XXBTZUSD"].([]any)
	assert.Equal(t, 30000.1, rows[0].([]any)[0])
}

func TestNormalize_NumericLast(t *testing.T) {
	got, err := Normalize(json.RawMessage(`{"XXBTZUSD":[],"last":1688671200}`))
	require.NoError(t, err)
	assert.Equal(t, "1688671200", got.(map[string]any)["last"])
}

func TestNormalize_NonObject(t *testing.T) {
	got, err := Normalize(json.RawMessage(`["1.5","x"]`))
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, "x"}, got)
}

func TestParseOHLC(t *testing.T) {
	raw := json.RawMessage(`{
		"XXBTZUSD": [
			[1688671200, "30306.1", "30306.2", "30305.7", "30305.7", "30306.1", "3.39243896", 23],
			[1688671260, "30304.5", "30304.5", "30300.0", "30300.0", "30301.2", "4.42996871", 18]
		],
		"last": 1688672160
	}`)

	entries, last, err := ParseOHLC(raw)
	require.NoError(t, err)

	assert.Equal(t, "1688672160", last)
	require.Len(t, entries, 2)
	assert.Equal(t, time.Unix(1688671200, 0).UTC(), entries[0].Time)
	assert.Equal(t, 30306.1, entries[0].Open)
	assert.Equal(t, 30305.7, entries[0].Close)
	assert.Equal(t, 3.39243896, entries[0].Volume)
	assert.Equal(t, int64(23), entries[0].Count)
}

func TestParseOHLC_ShortRow(t *testing.T) {
	_, _, err := ParseOHLC(json.RawMessage(`{"XXBTZUSD":[[1688671200,"1","2"]],"last":1}`))
	assert.Error(t, err)
}

func TestParseOrderBook(t *testing.T) {
	raw := json.RawMessage(`{
		"XXBTZUSD": {
			"asks": [["30384.10000", "2.059", 1688671659], ["30383.20000", "0.500", 1688671658]],
			"bids": [["30297.00000", "0.115", 1688671656], ["30298.00000", "1.000", 1688671657]]
		}
	}`)

	book, err := ParseOrderBook(raw)
	require.NoError(t, err)

	assert.Equal(t, "XXBTZUSD", book.Pair)
	require.Len(t, book.Asks, 2)
	require.Len(t, book.Bids, 2)
	assert.Equal(t, 30383.2, book.Asks[0].Price)
	assert.Equal(t, 30298.0, book.Bids[0].Price)
	assert.Equal(t, 2.059, book.Asks[1].Volume)
	assert.Equal(t, time.Unix(1688671658, 0).UTC(), book.Asks[0].Timestamp)
}

func TestParseOrderBook_Empty(t *testing.T) {
	_, err := ParseOrderBook(json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestParseRecentTrades(t *testing.T) {
	raw := json.RawMessage(`{
		"XXBTZUSD": [
			["30243.40000", "0.34507674", 1688669597.8277369, "b", "m", "", 61044952],
			["30243.30000", "0.00376960", 1688669598.2804112, "s", "l", "", 61044953]
		],
		"last": "1688671969993150842"
	}`)

	trades, last, err := ParseRecentTrades(raw)
	require.NoError(t, err)

	assert.Equal(t, "1688671969993150842", last)
	require.Len(t, trades, 2)
	assert.Equal(t, core.SideBuy, trades[0].Side)
	assert.Equal(t, core.TypeMarket, trades[0].OrderType)
	assert.Equal(t, int64(61044952), trades[0].TradeID)
	assert.Equal(t, core.SideSell, trades[1].Side)
	assert.Equal(t, core.TypeLimit, trades[1].OrderType)
	assert.Equal(t, 0.0037696, trades[1].Volume)
}

func TestParseSpread(t *testing.T) {
	raw := json.RawMessage(`{"XXBTZUSD":[[1688671834,"30292.10000","30297.50000"]],"last":1688672106}`)

	entries, last, err := ParseSpread(raw)
	require.NoError(t, err)

	assert.Equal(t, "1688672106", last)
	require.Len(t, entries, 1)
	assert.Equal(t, 30292.1, entries[0].Bid)
	assert.Equal(t, 30297.5, entries[0].Ask)
}

func TestParseServerTime(t *testing.T) {
	st, err := ParseServerTime(json.RawMessage(`{"unixtime":1688669448,"rfc1123":"Thu, 06 Jul 23 18:50:48 +0000"}`))
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1688669448, 0).UTC(), st.Time)
	assert.Equal(t, "Thu, 06 Jul 23 18:50:48 +0000", st.RFC1123)
}

func TestParseSystemStatus(t *testing.T) {
	status, err := ParseSystemStatus(json.RawMessage(`{"status":"online","timestamp":"2023-07-06T18:52:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, "online", status.Status)
	assert.Equal(t, time.Date(2023, 7, 6, 18, 52, 0, 0, time.UTC), status.Timestamp)
}

func TestParseAssetsAndPairs(t *testing.T) {
	assets, err := ParseAssets(json.RawMessage(`{"XXBT":{"aclass":"currency","altname":"XBT","decimals":10,"display_decimals":5}}`))
	require.NoError(t, err)
	assert.Equal(t, core.AssetInfo{Symbol: "XXBT", AssetClass: "currency", AltName: "XBT", Decimals: 10, DisplayDecimals: 5}, assets["XXBT"])

	pairs, err := ParseAssetPairs(json.RawMessage(`{"XXBTZUSD":{"altname":"XBTUSD","wsname":"XBT/USD","base":"XXBT","quote":"ZUSD","pair_decimals":1,"lot_decimals":8,"ordermin":"0.0001"}}`))
	require.NoError(t, err)

	pair := pairs["XXBTZUSD"]
	assert.Equal(t, "XXBT", pair.Base)
	assert.Equal(t, "ZUSD", pair.Quote)
	assert.Equal(t, "XBT/USD", pair.WSName)
	assert.Equal(t, "0.0001", pair.OrderMin.String())
}

func TestParseBalance(t *testing.T) {
	balances, err := ParseBalance(json.RawMessage(`{"ZUSD":"171288.6158","XXBT":"0.0000011000"}`))
	require.NoError(t, err)

	usd := balances["ZUSD"]
	btc := balances["XXBT"]
	assert.Equal(t, "171288.6158", usd.String())
	assert.Equal(t, "0.0000011000", btc.String())

	_, err = ParseBalance(json.RawMessage(`{"ZUSD":"abc"}`))
	assert.Error(t, err)
}

func TestParseTradesHistory(t *testing.T) {
	raw := json.RawMessage(`{
		"trades": {
			"THVRQM-33VKH-UCI7BS": {
				"ordertxid": "OQCLML-BW3P3-BUCMWZ",
				"postxid": "TKH2SE-M7IF5-CFI7LT",
				"pair": "XXBTZUSD",
				"time": 1688667796.8802,
				"type": "buy",
				"ordertype": "limit",
				"price": "30010.00000",
				"cost": "600.20000",
				"fee": "0.00000",
				"vol": "0.02000000",
				"margin": "0.00000",
				"misc": ""
			}
		},
		"count": 2346
	}`)

	trades, count, err := ParseTradesHistory(raw)
	require.NoError(t, err)

	assert.Equal(t, 2346, count)
	trade := trades["THVRQM-33VKH-UCI7BS"]
	assert.Equal(t, "THVRQM-33VKH-UCI7BS", trade.TxID)
	assert.Equal(t, "XXBTZUSD", trade.Pair)
	assert.Equal(t, core.SideBuy, trade.Side)
	assert.Equal(t, core.TypeLimit, trade.OrderType)
	assert.Equal(t, "30010.00000", trade.Price.String())
	assert.Equal(t, "0.02000000", trade.Volume.String())
	assert.Equal(t, int64(1688667796), trade.Time.Unix())
}

func TestParseTradesInfo_BadSide(t *testing.T) {
	_, err := ParseTradesInfo(json.RawMessage(`{"T1":{"type":"hold","ordertype":"limit"}}`))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestParseLedgers(t *testing.T) {
	raw := json.RawMessage(`{
		"ledger": {
			"L4UESK-KG3EQ-UFO4T5": {
				"refid": "TJKLXX-PGMUI-4NTLXU",
				"time": 1688464484.1787,
				"type": "trade",
				"subtype": "",
				"aclass": "currency",
				"asset": "ZGBP",
				"amount": "-24.5000",
				"fee": "0.0490",
				"balance": "459567.9171"
			}
		},
		"count": 1
	}`)

	ledgers, count, err := ParseLedgers(raw)
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	entry := ledgers["L4UESK-KG3EQ-UFO4T5"]
	assert.Equal(t, "L4UESK-KG3EQ-UFO4T5", entry.LedgerID)
	assert.Equal(t, "trade", entry.Type)
	assert.Equal(t, "ZGBP", entry.Asset)
	assert.Equal(t, "-24.5000", entry.Amount.String())
	assert.Equal(t, "0.0490", entry.Fee.String())

	entries, err := ParseLedgerEntries(json.RawMessage(`{"L1":{"refid":"R1","type":"deposit","asset":"XXBT","amount":"1.0","fee":"0","balance":"1.0","time":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "deposit", entries["L1"].Type)
}
