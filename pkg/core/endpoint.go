package core

import (
	"fmt"
	"slices"
)

// EndpointClass separates endpoints by credential requirement and rate budget.
type EndpointClass int

const (
	// ClassPublic endpoints need no credentials and share the public budget.
	ClassPublic EndpointClass = iota
	// ClassPrivate endpoints are signed and charged to the tier budget.
	ClassPrivate
)

// String returns the string representation of the endpoint class.
func (c EndpointClass) String() string {
	return [...]string{"public", "private"}[c]
}

// Public endpoints.
const (
	EndpointTime         = "Time"
	EndpointSystemStatus = "SystemStatus"
	EndpointAssets       = "Assets"
	EndpointAssetPairs   = "AssetPairs"
	EndpointTicker       = "Ticker"
	EndpointOHLC         = "OHLC"
	EndpointDepth        = "Depth"
	EndpointTrades       = "Trades"
	EndpointSpread       = "Spread"
)

// Private endpoints.
const (
	EndpointBalance          = "Balance"
	EndpointTradeBalance     = "TradeBalance"
	EndpointOpenOrders       = "OpenOrders"
	EndpointClosedOrders     = "ClosedOrders"
	EndpointQueryOrders      = "QueryOrders"
	EndpointTradesHistory    = "TradesHistory"
	EndpointQueryTrades      = "QueryTrades"
	EndpointOpenPositions    = "OpenPositions"
	EndpointLedgers          = "Ledgers"
	EndpointQueryLedgers     = "QueryLedgers"
	EndpointTradeVolume      = "TradeVolume"
	EndpointAddExport        = "AddExport"
	EndpointExportStatus     = "ExportStatus"
	EndpointRetrieveExport   = "RetrieveExport"
	EndpointRemoveExport     = "RemoveExport"
	EndpointAddOrder         = "AddOrder"
	EndpointCancelOrder      = "CancelOrder"
	EndpointDepositMethods   = "DepositMethods"
	EndpointDepositAddresses = "DepositAddresses"
	EndpointDepositStatus    = "DepositStatus"
	EndpointWithdrawInfo     = "WithdrawInfo"
	EndpointWithdraw         = "Withdraw"
	EndpointWithdrawStatus   = "WithdrawStatus"
	EndpointWithdrawCancel   = "WithdrawCancel"
	EndpointWalletTransfer   = "WalletTransfer"
)

var endpointClasses = map[string]EndpointClass{
	EndpointTime:         ClassPublic,
	EndpointSystemStatus: ClassPublic,
	EndpointAssets:       ClassPublic,
	EndpointAssetPairs:   ClassPublic,
	EndpointTicker:       ClassPublic,
	EndpointOHLC:         ClassPublic,
	EndpointDepth:        ClassPublic,
	EndpointTrades:       ClassPublic,
	EndpointSpread:       ClassPublic,

	EndpointBalance:          ClassPrivate,
	EndpointTradeBalance:     ClassPrivate,
	EndpointOpenOrders:       ClassPrivate,
	EndpointClosedOrders:     ClassPrivate,
	EndpointQueryOrders:      ClassPrivate,
	EndpointTradesHistory:    ClassPrivate,
	EndpointQueryTrades:      ClassPrivate,
	EndpointOpenPositions:    ClassPrivate,
	EndpointLedgers:          ClassPrivate,
	EndpointQueryLedgers:     ClassPrivate,
	EndpointTradeVolume:      ClassPrivate,
	EndpointAddExport:        ClassPrivate,
	EndpointExportStatus:     ClassPrivate,
	EndpointRetrieveExport:   ClassPrivate,
	EndpointRemoveExport:     ClassPrivate,
	EndpointAddOrder:         ClassPrivate,
	EndpointCancelOrder:      ClassPrivate,
	EndpointDepositMethods:   ClassPrivate,
	EndpointDepositAddresses: ClassPrivate,
	EndpointDepositStatus:    ClassPrivate,
	EndpointWithdrawInfo:     ClassPrivate,
	EndpointWithdraw:         ClassPrivate,
	EndpointWithdrawStatus:   ClassPrivate,
	EndpointWithdrawCancel:   ClassPrivate,
	EndpointWalletTransfer:   ClassPrivate,
}

// Classify returns the class of a documented endpoint.
// Unknown names are an error, never routed to a default class.
func Classify(endpoint string) (EndpointClass, error) {
	class, ok := endpointClasses[endpoint]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, endpoint)
	}
	return class, nil
}

// Endpoints returns the sorted names of all endpoints of a class.
func Endpoints(class EndpointClass) []string {
	var names []string
	for name, c := range endpointClasses {
		if c == class {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
