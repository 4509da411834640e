package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenex/pkg/core"
	"krakenex/pkg/exchange"
)

// krakenStub serves canned results by URL path and records the posted forms.
type krakenStub struct {
	mu      sync.Mutex
	results map[string]string
	forms   map[string][]map[string]string
}

func newKrakenStub(t *testing.T, results map[string]string) (*krakenStub, *Session) {
	t.Helper()
	stub := &krakenStub{results: results, forms: make(map[string][]map[string]string)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		stub.mu.Lock()
		stub.forms[r.URL.Path] = append(stub.forms[r.URL.Path], form)
		result, ok := stub.results[r.URL.Path]
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.Write([]byte(`{"error":["EGeneral:Unknown method"]}`))
			return
		}
		w.Write([]byte(`{"error":[],"result":` + result + `}`))
	}))
	t.Cleanup(server.Close)

	config := core.DefaultConfig().
		WithBaseURL(server.URL).
		WithTier(core.TierPro).
		WithCredentials(&core.Credentials{APIKey: "key", SecretKey: testSecret})
	s, err := New(config, WithClock(newFakeClock()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return stub, s
}

func (k *krakenStub) lastForm(path string) map[string]string {
	k.mu.Lock()
	defer k.mu.Unlock()
	forms := k.forms[path]
	if len(forms) == 0 {
		return nil
	}
	return forms[len(forms)-1]
}

func (k *krakenStub) calls(path string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.forms[path])
}

func TestSession_PublicMethods(t *testing.T) {
	stub, s := newKrakenStub(t, map[string]string{
		"/0/public/Time":         `{"unixtime":1688669448,"rfc1123":"Thu, 06 Jul 23 18:50:48 +0000"}`,
		"/0/public/SystemStatus": `{"status":"online","timestamp":"2023-07-06T18:52:00Z"}`,
		"/0/public/Ticker":       `{"XXBTZUSD":{"c":["30303.20000","0.00067643"]}}`,
		"/0/public/OHLC":         `{"XXBTZUSD":[[1688671200,"1","2","0.5","1.5","1.2","10",3]],"last":1688671200}`,
		"/0/public/Depth":        `{"XXBTZUSD":{"asks":[["2","1",1]],"bids":[["1","1",1]]}}`,
		"/0/public/Spread":       `{"XXBTZUSD":[[1688671834,"1.0","2.0"]],"last":1688672106}`,
	})
	ctx := context.Background()

	st, err := s.GetServerTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1688669448), st.Time.Unix())

	status, err := s.GetSystemStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "online", status.Status)

	ticker, err := s.GetTickerInformation(ctx, "XXBTZUSD")
	require.NoError(t, err)
	closing := ticker["XXBTZUSD"].(map[string]any)["c"].([]any)
	assert.Equal(t, 30303.2, closing[0])
	assert.Equal(t, "XXBTZUSD", stub.lastForm("/0/public/Ticker")["pair"])

	candles, last, err := s.GetOHLCData(ctx, "XXBTZUSD", exchange.WithInterval(60), exchange.WithSince("1688600000"))
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, "1688671200", last)
	form := stub.lastForm("/0/public/OHLC")
	assert.Equal(t, "60", form["interval"])
	assert.Equal(t, "1688600000", form["since"])

	book, err := s.GetOrderBook(ctx, "XXBTZUSD", exchange.WithCount(10))
	require.NoError(t, err)
	assert.Equal(t, 2.0, book.Asks[0].Price)
	assert.Equal(t, "10", stub.lastForm("/0/public/Depth")["count"])

	spread, _, err := s.GetRecentSpreadData(ctx, "XXBTZUSD")
	require.NoError(t, err)
	assert.Equal(t, 2.0, spread[0].Ask)
}

func TestSession_PublicMethods_ArgumentValidation(t *testing.T) {
	stub, s := newKrakenStub(t, map[string]string{})
	ctx := context.Background()

	_, _, err := s.GetOHLCData(ctx, "XXBTZUSD", exchange.WithInterval(2))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = s.GetRecentTrades(ctx, "")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	assert.Zero(t, stub.calls("/0/public/OHLC"))
	assert.Zero(t, stub.calls("/0/public/Trades"))
}

func TestSession_UnknownMethodFromServer(t *testing.T) {
	_, s := newKrakenStub(t, map[string]string{})

	_, err := s.GetServerTime(context.Background())

	var apiErr *core.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"EGeneral:Unknown method"}, apiErr.Messages)
}

func TestSession_PrivateMethods(t *testing.T) {
	stub, s := newKrakenStub(t, map[string]string{
		"/0/private/Balance":       `{"ZUSD":"171288.6158","XXBT":"0.5"}`,
		"/0/private/TradeBalance":  `{"eb":"1101.3425","tb":"392.2264"}`,
		"/0/private/OpenOrders":    `{"open":{"OQCLML-BW3P3-BUCMWZ":{"status":"open","vol":"1.25"}}}`,
		"/0/private/ClosedOrders":  `{"closed":{"O1":{"status":"closed"}},"count":7}`,
		"/0/private/TradesHistory": `{"trades":{"T1":{"pair":"XXBTZUSD","time":1688667796.88,"type":"sell","ordertype":"market","price":"30000","cost":"300","fee":"0.78","vol":"0.01","margin":"0"}},"count":1}`,
		"/0/private/Ledgers":       `{"ledger":{"L1":{"refid":"R1","time":1688464484.1,"type":"deposit","aclass":"currency","asset":"ZEUR","amount":"100.0","fee":"0.0","balance":"100.0"}},"count":1}`,
		"/0/private/QueryLedgers":  `{"L1":{"refid":"R1","time":1,"type":"deposit","asset":"ZEUR","amount":"1","fee":"0","balance":"1"}}`,
		"/0/private/TradeVolume":   `{"currency":"ZUSD","volume":"200709587.4223"}`,
	})
	ctx := context.Background()

	balances, err := s.GetAccountBalance(ctx)
	require.NoError(t, err)
	usd := balances["ZUSD"]
	assert.Equal(t, "171288.6158", usd.String())
	assert.NotEmpty(t, stub.lastForm("/0/private/Balance")["nonce"])

	tb, err := s.GetTradeBalance(ctx, exchange.WithAssets("ZEUR"))
	require.NoError(t, err)
	assert.Equal(t, 1101.3425, tb["eb"])
	assert.Equal(t, "ZEUR", stub.lastForm("/0/private/TradeBalance")["asset"])

	open, err := s.GetOpenOrders(ctx, exchange.WithTrades(true))
	require.NoError(t, err)
	assert.Contains(t, open, "OQCLML-BW3P3-BUCMWZ")
	assert.Equal(t, "true", stub.lastForm("/0/private/OpenOrders")["trades"])

	closed, count, err := s.GetClosedOrders(ctx, exchange.WithCloseTime("both"))
	require.NoError(t, err)
	assert.Len(t, closed, 1)
	assert.Equal(t, 7, count)

	trades, count, err := s.GetTradesHistory(ctx, exchange.WithOffset(50), exchange.WithTradeType("all"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, core.SideSell, trades["T1"].Side)
	form := stub.lastForm("/0/private/TradesHistory")
	assert.Equal(t, "50", form["ofs"])
	assert.Equal(t, "all", form["type"])

	ledgers, _, err := s.GetLedgersInfo(ctx, exchange.WithLedgerType("deposit"), exchange.WithAssets("ZEUR", "XXBT"))
	require.NoError(t, err)
	assert.Equal(t, "ZEUR", ledgers["L1"].Asset)
	assert.Equal(t, "ZEUR,XXBT", stub.lastForm("/0/private/Ledgers")["asset"])

	entries, err := s.QueryLedgers(ctx, []string{"L1", "L2"})
	require.NoError(t, err)
	assert.Contains(t, entries, "L1")
	assert.Equal(t, "L1,L2", stub.lastForm("/0/private/QueryLedgers")["id"])

	volume, err := s.GetTradeVolume(ctx, exchange.WithPairs("XXBTZUSD"), exchange.WithFeeInfo(true))
	require.NoError(t, err)
	assert.Equal(t, "ZUSD", volume["currency"])
	assert.Equal(t, "true", stub.lastForm("/0/private/TradeVolume")["fee-info"])
}

func TestSession_PrivateMethods_IDLimits(t *testing.T) {
	stub, s := newKrakenStub(t, map[string]string{})
	ctx := context.Background()

	ids := strings.Split(strings.Repeat("T,", exchange.MaxQueryTrades+1), ",")[:exchange.MaxQueryTrades+1]

	_, err := s.QueryTradesInfo(ctx, ids)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = s.QueryLedgers(ctx, ids)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = s.QueryOrdersInfo(ctx, nil)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = s.GetLedgersInfo(ctx, exchange.WithLedgerType("bogus"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = s.GetClosedOrders(ctx, exchange.WithCloseTime("later"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	assert.Zero(t, stub.calls("/0/private/QueryTrades"))
	assert.Zero(t, stub.calls("/0/private/QueryLedgers"))
	assert.Zero(t, stub.calls("/0/private/Ledgers"))
}
